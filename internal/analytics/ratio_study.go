package analytics

import (
	"math"
	"sort"

	domain "assessr/domain/analytics"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Minimum sample sizes below which a measure is reported as null
const (
	minSalesForPRB = 3
	minSalesForCI  = 2
)

type saleObs struct {
	ratio    float64
	price    float64
	assessed float64
	amounts  bool
}

// ComputeRatioStudy computes the IAAO uniformity and equity measures for rows:
// median, mean and price-weighted mean ratio, coefficient of dispersion (COD),
// price-related differential (PRD), price-related bias (PRB) and a 95%
// Student-t interval for the mean. Trimming follows the same IQR rule as
// ComputeStatistics.
func ComputeRatioStudy[T domain.SaleRatioSource](rows []T, trimFactor *float64) domain.RatioStudy {
	obs := make([]saleObs, 0, len(rows))
	for _, row := range rows {
		r, ok := row.RatioValue()
		if !ok || !isFinite(r) {
			continue
		}
		o := saleObs{ratio: r}
		if price, assessed, ok := row.SaleAmounts(); ok && price > 0 && isFinite(price) && isFinite(assessed) {
			o.price, o.assessed, o.amounts = price, assessed, true
		}
		obs = append(obs, o)
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].ratio < obs[j].ratio })

	before := len(obs)
	if validTrim(trimFactor) && len(obs) > 0 {
		lower, upper := TrimBounds(ratiosOf(obs), *trimFactor)
		kept := obs[:0:0]
		for _, o := range obs {
			if o.ratio >= lower && o.ratio <= upper {
				kept = append(kept, o)
			}
		}
		obs = kept
	}

	study := domain.RatioStudy{N: len(obs), Trimmed: before - len(obs)}
	if len(obs) == 0 {
		return study
	}

	ratios := ratiosOf(obs)
	median := PercentileCont(ratios, 0.5)
	mean := stat.Mean(ratios, nil)
	study.Median = ptr(median)
	study.Mean = ptr(mean)

	if median != 0 {
		dev := make([]float64, len(ratios))
		for i, r := range ratios {
			dev[i] = math.Abs(r - median)
		}
		study.COD = ptr(100 * stat.Mean(dev, nil) / median)
	}

	// price-weighted mean of ratios equals sum(assessed)/sum(price)
	var wRatios, prices []float64
	for _, o := range obs {
		if o.amounts {
			wRatios = append(wRatios, o.ratio)
			prices = append(prices, o.price)
		}
	}
	if len(wRatios) > 0 {
		wm := stat.Mean(wRatios, prices)
		if isFinite(wm) {
			study.WeightedMean = ptr(wm)
			if wm != 0 {
				study.PRD = ptr(mean / wm)
			}
		}
	}

	study.PRB = priceRelatedBias(obs, median)

	if len(ratios) >= minSalesForCI {
		sd := stat.StdDev(ratios, nil)
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(ratios) - 1)}.Quantile(0.975)
		half := t * sd / math.Sqrt(float64(len(ratios)))
		if isFinite(half) {
			study.MeanCI95 = &[2]float64{mean - half, mean + half}
		}
	}

	return study
}

// priceRelatedBias regresses the percentage deviation from the median ratio
// on log2 of a value proxy halfway between market and assessed-implied value
func priceRelatedBias(obs []saleObs, median float64) *float64 {
	if median <= 0 {
		return nil
	}
	var xs, ys []float64
	for _, o := range obs {
		if !o.amounts {
			continue
		}
		proxy := 0.5*(o.assessed/median) + 0.5*o.price
		if proxy <= 0 {
			continue
		}
		xs = append(xs, math.Log2(proxy))
		ys = append(ys, (o.ratio-median)/median)
	}
	if len(xs) < minSalesForPRB || stat.Variance(xs, nil) == 0 {
		return nil
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if !isFinite(beta) {
		return nil
	}
	return ptr(beta)
}

func ratiosOf(obs []saleObs) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.ratio
	}
	return out
}
