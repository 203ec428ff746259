package analytics

import (
	"math"
	"sort"

	domain "assessr/domain/analytics"
)

type fieldRange struct {
	min, max float64
	seen     bool
}

func (r fieldRange) span() float64 {
	if !r.seen {
		return 0
	}
	return r.max - r.min
}

// GowerDistances scores every candidate against subject with the Gower
// dissimilarity over fields and returns them most-similar first.
//
// Numeric and date fields are scaled by the range observed across the subject
// and all candidates; a zero range contributes 0. Categorical fields compare
// string forms, boolean fields compare truthiness. A field is skipped for a
// pair when either side is null or cannot be read as the field's type, so it
// adds to neither the weighted sum nor the weight total. A candidate with no
// comparable field has distance 0. Ties keep input order.
func GowerDistances[T domain.Fielder](subject T, candidates []T, fields []domain.FieldSpec) []domain.DistanceResult[T] {
	ranges := make([]fieldRange, len(fields))
	for j, f := range fields {
		if f.Type != domain.FieldNumeric && f.Type != domain.FieldDate {
			continue
		}
		ranges[j].observe(scalar(subject.Field(f.Key), f.Type))
		for _, c := range candidates {
			ranges[j].observe(scalar(c.Field(f.Key), f.Type))
		}
	}

	results := make([]domain.DistanceResult[T], len(candidates))
	for i, c := range candidates {
		var num, den float64
		for j, f := range fields {
			d, ok := partialDistance(subject.Field(f.Key), c.Field(f.Key), f.Type, ranges[j].span())
			if !ok {
				continue
			}
			w := f.EffectiveWeight()
			num += w * d
			den += w
		}

		dist := 0.0
		if den > 0 {
			dist = num / den
		}
		results[i] = domain.DistanceResult[T]{Item: c, Distance: dist}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})
	return results
}

// partialDistance returns the [0,1] dissimilarity of a and b for one field,
// or false when the pair must be skipped
func partialDistance(a, b domain.Value, typ domain.FieldType, span float64) (float64, bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}

	switch typ {
	case domain.FieldNumeric, domain.FieldDate:
		x, okA := scalar(a, typ)
		y, okB := scalar(b, typ)
		if !okA || !okB {
			return 0, false
		}
		if span == 0 {
			return 0, true
		}
		return clamp01(math.Abs(x-y) / span), true
	case domain.FieldCategorical:
		if a.String() == b.String() {
			return 0, true
		}
		return 1, true
	case domain.FieldBoolean:
		if a.Truthy() == b.Truthy() {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

// scalar reads v as a number for range-scaled field types
func scalar(v domain.Value, typ domain.FieldType) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	var (
		f  float64
		ok bool
	)
	if typ == domain.FieldDate {
		f, ok = v.EpochMillis()
	} else {
		f, ok = v.Float()
	}
	if !ok || !isFinite(f) {
		return 0, false
	}
	return f, true
}

func (r *fieldRange) observe(v float64, ok bool) {
	if !ok {
		return
	}
	if !r.seen {
		r.min, r.max, r.seen = v, v, true
		return
	}
	r.min = math.Min(r.min, v)
	r.max = math.Max(r.max, v)
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
