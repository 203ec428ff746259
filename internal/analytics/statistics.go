package analytics

import (
	"sort"
	"strings"

	domain "assessr/domain/analytics"

	"github.com/montanaflynn/stats"
)

// Summary holds the aggregate of one sample
type Summary struct {
	Median float64
	Min    float64
	Max    float64
	Avg    float64
	N      int
}

// Summarize aggregates the finite values of xs, optionally trimming IQR
// outliers first. N is zero for an empty (or fully trimmed) sample, in which
// case the remaining fields are meaningless.
func Summarize(xs []float64, trimFactor *float64) Summary {
	sorted := finiteSorted(xs)
	if validTrim(trimFactor) {
		sorted = TrimOutliers(sorted, *trimFactor)
	}
	if len(sorted) == 0 {
		return Summary{}
	}

	data := stats.Float64Data(sorted)
	avg, _ := stats.Mean(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)

	return Summary{
		Median: PercentileCont(sorted, 0.5),
		Min:    min,
		Max:    max,
		Avg:    avg,
		N:      len(sorted),
	}
}

type ratioGroup[T domain.RatioSource] struct {
	key    *string
	rows   []T
	values []float64
}

// ComputeStatistics aggregates the ratio of each row, either over the whole
// input or per group of opts.GroupBy field values.
//
// Rows with a missing or non-finite ratio are kept in their group (and in
// RawRows) but do not contribute to the aggregate. Grouped output is sorted by
// group key; ungrouped output is always a single element with a nil key.
func ComputeStatistics[T domain.RatioSource](rows []T, opts domain.StatisticsOptions) []domain.GroupedStatistic[T] {
	groups := partition(rows, opts.GroupBy)

	out := make([]domain.GroupedStatistic[T], 0, len(groups))
	for _, g := range groups {
		s := Summarize(g.values, opts.TrimFactor)
		stat := domain.GroupedStatistic[T]{GroupKey: g.key, N: s.N}
		if s.N > 0 {
			stat.Median = ptr(s.Median)
			stat.Min = ptr(s.Min)
			stat.Max = ptr(s.Max)
			stat.Avg = ptr(s.Avg)
		}
		if opts.IncludeRaw {
			stat.RawRows = g.rows
		}
		out = append(out, stat)
	}
	return out
}

func partition[T domain.RatioSource](rows []T, groupBy []string) []*ratioGroup[T] {
	if len(groupBy) == 0 {
		g := &ratioGroup[T]{rows: make([]T, 0, len(rows))}
		for _, row := range rows {
			g.add(row)
		}
		return []*ratioGroup[T]{g}
	}

	byKey := make(map[string]*ratioGroup[T])
	for _, row := range rows {
		key := GroupKey(row, groupBy)
		g, ok := byKey[key]
		if !ok {
			g = &ratioGroup[T]{key: ptr(key)}
			byKey[key] = g
		}
		g.add(row)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]*ratioGroup[T], len(keys))
	for i, k := range keys {
		groups[i] = byKey[k]
	}
	return groups
}

func (g *ratioGroup[T]) add(row T) {
	g.rows = append(g.rows, row)
	if v, ok := row.RatioValue(); ok && isFinite(v) {
		g.values = append(g.values, v)
	}
}

// GroupKey joins the row's values for fields with " | ", substituting
// "(null)" for missing values
func GroupKey(row domain.Fielder, fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		v := row.Field(f)
		if v.IsNull() {
			parts[i] = domain.NullGroupMarker
			continue
		}
		parts[i] = v.String()
	}
	return strings.Join(parts, domain.GroupKeySeparator)
}

func ptr[T any](v T) *T { return &v }
