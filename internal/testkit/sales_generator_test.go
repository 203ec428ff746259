package testkit

import (
	"context"
	"testing"

	"assessr/domain/assessment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesGenerator_Deterministic(t *testing.T) {
	a := NewSalesGenerator(DefaultSalesConfig()).GenerateSales()
	b := NewSalesGenerator(DefaultSalesConfig()).GenerateSales()
	require.Len(t, a, 120)
	assert.Equal(t, a, b)
}

func TestSalesGenerator_RatiosMatchAmounts(t *testing.T) {
	for _, row := range NewSalesGenerator(DefaultSalesConfig()).GenerateSales() {
		ratio, ok := row.RatioValue()
		if !ok {
			assert.False(t, row.SalePrice.Valid)
			continue
		}
		price, assessed, ok := row.SaleAmounts()
		require.True(t, ok)
		assert.InDelta(t, assessed/price, ratio, 1e-12)
	}
}

func TestInMemoryRatioRepository_Filters(t *testing.T) {
	cfg := DefaultSalesConfig()
	cfg.InvalidRate = 0.5
	repo := NewInMemoryRatioRepository(NewSalesGenerator(cfg).GenerateSales())

	all, err := repo.ListRatioRows(context.Background(), assessment.RatioFilter{IncludeInvalid: true})
	require.NoError(t, err)
	valid, err := repo.ListRatioRows(context.Background(), assessment.RatioFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 120)
	assert.Less(t, len(valid), len(all))

	n2, err := repo.ListRatioRows(context.Background(), assessment.RatioFilter{Neighborhoods: []string{"N02"}, IncludeInvalid: true})
	require.NoError(t, err)
	assert.Len(t, n2, 40)

	none, err := repo.ListRatioRows(context.Background(), assessment.RatioFilter{TaxYear: 1999})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryFeatureRepository(t *testing.T) {
	features := NewSalesGenerator(DefaultSalesConfig()).GenerateFeatures(10)
	repo := NewInMemoryFeatureRepository(features)

	got, err := repo.GetFeatures(context.Background(), features[0].ParcelID)
	require.NoError(t, err)
	assert.Equal(t, features[0].ParcelID, got.ParcelID)

	cands, err := repo.ListCandidates(context.Background(), assessment.CandidateFilter{ExcludeParcelID: features[0].ParcelID, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, cands, 5)
	for i := 1; i < len(cands); i++ {
		assert.False(t, cands[i].SaleDate.V.After(cands[i-1].SaleDate.V))
	}

	_, err = repo.GetFeatures(context.Background(), "missing")
	assert.Error(t, err)
}
