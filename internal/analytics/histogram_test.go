package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHistogramBins_Example(t *testing.T) {
	bins := BuildHistogramBins([]float64{0.5, 0.55, 1.1, 1.15}, 0.5)
	require.Len(t, bins, 2)
	assert.InDelta(t, 0.5, bins[0].BinStart, 1e-12)
	assert.Equal(t, 2, bins[0].Count)
	assert.InDelta(t, 1.0, bins[1].BinStart, 1e-12)
	assert.Equal(t, 2, bins[1].Count)
}

func TestBuildHistogramBins_FillsGaps(t *testing.T) {
	bins := BuildHistogramBins([]float64{0.12, 0.48}, 0.1)
	require.Len(t, bins, 4)
	want := []float64{0.1, 0.2, 0.3, 0.4}
	for i, b := range bins {
		assert.Equal(t, want[i], b.BinStart)
	}
	assert.Equal(t, []int{1, 0, 0, 1}, []int{bins[0].Count, bins[1].Count, bins[2].Count, bins[3].Count})
}

func TestBuildHistogramBins_ConservationAndContiguity(t *testing.T) {
	values := []float64{0.73, 0.81, 0.92, 0.95, 0.97, 1.0, 1.0, 1.03, 1.08, 1.31, 2.2, -0.4, math.NaN(), math.Inf(-1)}
	for _, width := range []float64{0.01, 0.05, 0.1, 0.25, 1, 3} {
		bins := BuildHistogramBins(values, width)
		require.NotEmpty(t, bins)

		total := 0
		for i, b := range bins {
			total += b.Count
			if i > 0 {
				assert.InDelta(t, width, b.BinStart-bins[i-1].BinStart, 1e-8, "width %v bin %d", width, i)
			}
		}
		assert.Equal(t, 12, total, "width %v", width)
		assert.LessOrEqual(t, bins[0].BinStart, -0.4)
		assert.Equal(t, HistogramBinCount(values, width), len(bins))
	}
}

func TestBuildHistogramBins_Degenerate(t *testing.T) {
	assert.Empty(t, BuildHistogramBins(nil, 0.1))
	assert.Empty(t, BuildHistogramBins([]float64{math.NaN()}, 0.1))
	assert.Empty(t, BuildHistogramBins([]float64{1, 2}, 0))
	assert.Empty(t, BuildHistogramBins([]float64{1, 2}, -1))
	assert.Empty(t, BuildHistogramBins([]float64{1, 2}, math.NaN()))

	single := BuildHistogramBins([]float64{1.0, 1.0}, 0.25)
	require.Len(t, single, 1)
	assert.Equal(t, 1.0, single[0].BinStart)
	assert.Equal(t, 2, single[0].Count)
}

func TestRatioValues(t *testing.T) {
	rows := []testRow{ratio(1), {hasRatio: false}, ratio(math.NaN()), ratio(2)}
	assert.Equal(t, []float64{1, 2}, RatioValues(rows))
}

func TestBuildHistogramBins_SnapsBoundaryValues(t *testing.T) {
	// 0.3/0.1 is 2.9999999999999996 in floating point
	bins := BuildHistogramBins([]float64{0.3, 0.7}, 0.1)
	require.Len(t, bins, 5)
	assert.Equal(t, 0.3, bins[0].BinStart)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 0.7, bins[4].BinStart)
	assert.Equal(t, 1, bins[4].Count)
}

func TestBuildHistogramBins_TooManyBinsYieldsNone(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Empty(t, BuildHistogramBins([]float64{-1e300, 1e300}, 1e-10))
	})
	assert.Empty(t, BuildHistogramBins([]float64{0, MaxBins}, 1))
	assert.Len(t, BuildHistogramBins([]float64{0, MaxBins - 1}, 1), MaxBins)
}
