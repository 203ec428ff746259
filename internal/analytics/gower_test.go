package analytics

import (
	"testing"
	"time"

	domain "assessr/domain/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parcelFields = []domain.FieldSpec{
	{Key: "living_area", Type: domain.FieldNumeric, Weight: domain.Weight(2)},
	{Key: "neighborhood", Type: domain.FieldCategorical},
	{Key: "has_pool", Type: domain.FieldBoolean},
	{Key: "sale_date", Type: domain.FieldDate},
}

func parcel(area float64, nbhd string, pool bool, sold string) domain.Record {
	d, _ := time.Parse("2006-01-02", sold)
	return domain.Record{
		"living_area":  domain.Number(area),
		"neighborhood": domain.Text(nbhd),
		"has_pool":     domain.Bool(pool),
		"sale_date":    domain.Date(d),
	}
}

func TestGowerDistances_IdenticalRecordIsZero(t *testing.T) {
	x := parcel(1800, "N12", true, "2024-03-01")
	got := GowerDistances(x, []domain.Record{x}, parcelFields)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Distance)
}

func TestGowerDistances_WeightedScore(t *testing.T) {
	subject := parcel(1000, "N1", false, "2024-01-01")
	candidates := []domain.Record{
		parcel(2000, "N2", true, "2024-01-11"), // every field maximally different
		parcel(1500, "N1", false, "2024-01-06"),
	}
	got := GowerDistances(subject, candidates, parcelFields)
	require.Len(t, got, 2)

	// area: 500/1000 * 2, nbhd 0, pool 0, date 5/10 => (1 + 0 + 0 + 0.5) / 5
	assert.InDelta(t, 0.3, got[0].Distance, 1e-12)
	assert.Equal(t, "N1", got[0].Item.Field("neighborhood").String())
	assert.InDelta(t, 1.0, got[1].Distance, 1e-12)
}

func TestGowerDistances_ZeroWeightIgnoresField(t *testing.T) {
	fields := []domain.FieldSpec{
		{Key: "living_area", Type: domain.FieldNumeric, Weight: domain.Weight(0)},
		{Key: "neighborhood", Type: domain.FieldCategorical},
	}
	subject := parcel(1000, "N1", false, "2024-01-01")
	candidates := []domain.Record{parcel(3000, "N1", false, "2024-01-01")}

	got := GowerDistances(subject, candidates, fields)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].Distance)
}

func TestGowerDistances_SkipsMissingPairwise(t *testing.T) {
	subject := domain.Record{
		"living_area":  domain.Number(1000),
		"neighborhood": domain.Text("N1"),
	}
	candidates := []domain.Record{
		{"living_area": domain.Number(2000)},
		{"neighborhood": domain.Text("N2"), "has_pool": domain.Bool(true)},
		{"has_pool": domain.Bool(true), "sale_date": domain.Date(time.Now())},
		{"living_area": domain.Text("not a number"), "neighborhood": domain.Text("N1")},
	}
	got := GowerDistances(subject, candidates, parcelFields)
	require.Len(t, got, 4)

	byDistance := map[float64]int{}
	for _, r := range got {
		byDistance[r.Distance]++
	}
	// area range is 1000 so the first candidate scores 1; the second differs
	// on its only shared field; the last two have nothing that differs
	assert.Equal(t, 2, byDistance[0])
	assert.Equal(t, 2, byDistance[1])
}

func TestGowerDistances_ZeroRangeContributesZero(t *testing.T) {
	subject := domain.Record{"living_area": domain.Number(1200), "neighborhood": domain.Text("A")}
	candidates := []domain.Record{
		{"living_area": domain.Number(1200), "neighborhood": domain.Text("B")},
		{"living_area": domain.Number(1200), "neighborhood": domain.Text("A")},
	}
	got := GowerDistances(subject, candidates, parcelFields)
	// area adds weight 2 with distance 0, neighborhood adds weight 1
	assert.InDelta(t, 0.0, got[0].Distance, 1e-12)
	assert.InDelta(t, 1.0/3.0, got[1].Distance, 1e-12)
}

func TestGowerDistances_StableAndBounded(t *testing.T) {
	subject := parcel(1500, "N1", true, "2023-06-01")
	candidates := []domain.Record{
		parcel(1400, "N1", true, "2023-07-01"),
		parcel(900, "N9", false, "2021-01-01"),
		parcel(1400, "N1", true, "2023-07-01"),
		parcel(3100, "N1", true, "2024-02-01"),
		parcel(1600, "N2", true, "2023-05-01"),
	}
	candidates[0]["id"] = domain.Text("first")
	candidates[2]["id"] = domain.Text("second")

	got := GowerDistances(subject, candidates, parcelFields)
	require.Len(t, got, len(candidates))
	for i, r := range got {
		assert.GreaterOrEqual(t, r.Distance, 0.0)
		assert.LessOrEqual(t, r.Distance, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].Distance, r.Distance)
		}
	}
	assert.Equal(t, "first", got[0].Item.Field("id").String())
	assert.Equal(t, "second", got[1].Item.Field("id").String())
}

func TestGowerDistances_DateText(t *testing.T) {
	fields := []domain.FieldSpec{{Key: "sold", Type: domain.FieldDate}}
	subject := domain.Record{"sold": domain.Text("2024-01-01")}
	candidates := []domain.Record{
		{"sold": domain.Text("2024-01-03")},
		{"sold": domain.Text("2024-01-02T00:00:00Z")},
	}
	got := GowerDistances(subject, candidates, fields)
	assert.InDelta(t, 0.5, got[0].Distance, 1e-12)
	assert.InDelta(t, 1.0, got[1].Distance, 1e-12)
}

func TestGowerDistances_NoCandidates(t *testing.T) {
	got := GowerDistances(parcel(1, "a", true, "2024-01-01"), nil, parcelFields)
	assert.Empty(t, got)
}
