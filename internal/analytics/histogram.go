package analytics

import (
	"math"

	domain "assessr/domain/analytics"
)

// MaxBins caps the bins BuildHistogramBins will allocate
const MaxBins = 1 << 20

// binPrecision rounds bin starts so 0.1-wide bins read 0.3, not 0.30000000000000004
const binPrecision = 1e9

// BuildHistogramBins buckets the finite values into contiguous bins of
// binWidth. The first bin starts at the sample minimum floored to a multiple
// of binWidth and the last bin holds the sample maximum; empty bins in between
// are emitted with a zero count. An empty sample, a non-positive width or a
// width that would need more than MaxBins bins yields no bins.
func BuildHistogramBins(values []float64, binWidth float64) []domain.HistogramBin {
	if !(binWidth > 0) || math.IsInf(binWidth, 0) {
		return []domain.HistogramBin{}
	}

	finite := make([]float64, 0, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		finite = append(finite, v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(finite) == 0 {
		return []domain.HistogramBin{}
	}

	first := binIndex(lo, binWidth)
	span := binIndex(hi, binWidth) - first + 1
	if !(span <= MaxBins) {
		return []domain.HistogramBin{}
	}
	count := int(span)

	bins := make([]domain.HistogramBin, count)
	for i := range bins {
		bins[i].BinStart = math.Round((first+float64(i))*binWidth*binPrecision) / binPrecision
	}
	for _, v := range finite {
		idx := int(binIndex(v, binWidth) - first)
		if idx < 0 {
			idx = 0
		} else if idx >= count {
			idx = count - 1
		}
		bins[idx].Count++
	}
	return bins
}

// binIndex is floor(v/w), with quotients within rounding error of an integer
// snapped to it so 0.3 with width 0.1 lands in bin 3, not 2
func binIndex(v, w float64) float64 {
	q := v / w
	if r := math.Round(q); math.Abs(q-r) < 1e-9*math.Max(1, math.Abs(r)) {
		return r
	}
	return math.Floor(q)
}

// HistogramBinCount reports how many bins BuildHistogramBins would emit,
// letting callers reject widths that would explode the output
func HistogramBinCount(values []float64, binWidth float64) int {
	if !(binWidth > 0) || math.IsInf(binWidth, 0) {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if isFinite(v) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0
	}
	n := binIndex(hi, binWidth) - binIndex(lo, binWidth) + 1
	if !(n <= math.MaxInt32) {
		return math.MaxInt32
	}
	return int(n)
}

// RatioValues extracts the finite ratios of rows in input order
func RatioValues[T domain.RatioSource](rows []T) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.RatioValue(); ok && isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
