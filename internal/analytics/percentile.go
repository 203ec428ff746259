// Package analytics implements the ratio statistics, histogram and
// comparable-sales distance computations. Every function is pure: inputs are
// never mutated and no state is shared between calls.
package analytics

import (
	"math"
	"sort"
)

// PercentileCont returns the p-quantile (0 <= p <= 1) of an ascending sample
// using linear interpolation between closest ranks. The position of p is
// (n-1)*p, which matches PostgreSQL's percentile_cont so ratios computed here
// agree with the ones computed in SQL views. NaN is returned for an empty
// sample.
func PercentileCont(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	pos := float64(n-1) * p
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	lower, upper := sorted[int(lo)], sorted[int(hi)]
	return lower + (upper-lower)*(pos-lo)
}

// Quartiles returns percentile_cont(0.25) and percentile_cont(0.75)
func Quartiles(sorted []float64) (q1, q3 float64) {
	return PercentileCont(sorted, 0.25), PercentileCont(sorted, 0.75)
}

// TrimBounds returns the closed interval [Q1 - factor*IQR, Q3 + factor*IQR]
func TrimBounds(sorted []float64, factor float64) (lower, upper float64) {
	q1, q3 := Quartiles(sorted)
	iqr := q3 - q1
	return q1 - factor*iqr, q3 + factor*iqr
}

// TrimOutliers drops values outside TrimBounds. The input must be sorted;
// the result is sorted and never aliases the input.
func TrimOutliers(sorted []float64, factor float64) []float64 {
	if len(sorted) == 0 {
		return []float64{}
	}
	lower, upper := TrimBounds(sorted, factor)
	kept := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v >= lower && v <= upper {
			kept = append(kept, v)
		}
	}
	return kept
}

// finiteSorted copies the finite values of xs into a new ascending slice
func finiteSorted(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if isFinite(x) {
			out = append(out, x)
		}
	}
	sort.Float64s(out)
	return out
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// validTrim reports whether factor requests trimming
func validTrim(factor *float64) bool {
	return factor != nil && *factor > 0 && isFinite(*factor)
}
