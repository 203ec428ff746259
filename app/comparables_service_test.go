package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"assessr/domain/analytics"
	"assessr/domain/assessment"
	"assessr/domain/core"
	"assessr/internal/config"
	"assessr/internal/errors"
	"assessr/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(id string, living float64, hood string, sold time.Time) assessment.ParcelFeatures {
	return assessment.ParcelFeatures{
		ParcelID:      id,
		Neighborhood:  sql.Null[string]{V: hood, Valid: true},
		PropertyClass: sql.Null[string]{V: "R1", Valid: true},
		LivingArea:    sql.Null[float64]{V: living, Valid: true},
		SaleDate:      sql.Null[time.Time]{V: sold, Valid: !sold.IsZero()},
	}
}

func comparablesService(t *testing.T, features []assessment.ParcelFeatures) *ComparablesService {
	t.Helper()
	presets, err := config.ParsePresets([]byte(`
presets:
  size:
    - {key: living_area, type: numeric, weight: 2}
    - {key: neighborhood, type: categorical}
`), config.BuiltinPresets())
	require.NoError(t, err)

	svc := NewComparablesService(testkit.NewInMemoryFeatureRepository(features), presets, testAnalyticsConfig(), nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestComparablesService_Rank(t *testing.T) {
	sold := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := comparablesService(t, []assessment.ParcelFeatures{
		feature("subject", 2000, "N1", time.Time{}),
		feature("far", 3000, "N2", sold),
		feature("near", 2050, "N1", sold),
		feature("same", 2000, "N1", sold),
		feature("mid", 2400, "N1", sold),
		feature("stale", 2000, "N1", time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)),
	})

	result, err := svc.Rank(context.Background(), ComparablesRequest{ParcelID: "subject", Preset: "size"})
	require.NoError(t, err)

	assert.Equal(t, "size", result.Preset)
	assert.Equal(t, 4, result.Considered, "stale sales and the subject are excluded")
	require.Len(t, result.Comparables, 3, "limit defaults to the configured count")
	assert.Equal(t, "same", result.Comparables[0].Item.ParcelID)
	assert.Equal(t, 0.0, result.Comparables[0].Distance)
	assert.Equal(t, "near", result.Comparables[1].Item.ParcelID)
	assert.Equal(t, "mid", result.Comparables[2].Item.ParcelID)
	for _, c := range result.Comparables {
		assert.GreaterOrEqual(t, c.Distance, 0.0)
		assert.LessOrEqual(t, c.Distance, 1.0)
	}
}

func TestComparablesService_SameNeighborhood(t *testing.T) {
	sold := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := comparablesService(t, []assessment.ParcelFeatures{
		feature("subject", 2000, "N1", time.Time{}),
		feature("a", 2000, "N2", sold),
		feature("b", 2500, "N1", sold),
	})

	result, err := svc.Rank(context.Background(), ComparablesRequest{ParcelID: "subject", SameNeighborhood: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPreset, result.Preset)
	require.Len(t, result.Comparables, 1)
	assert.Equal(t, "b", result.Comparables[0].Item.ParcelID)
}

func TestComparablesService_Errors(t *testing.T) {
	svc := comparablesService(t, []assessment.ParcelFeatures{feature("subject", 2000, "N1", time.Time{})})

	_, err := svc.Rank(context.Background(), ComparablesRequest{ParcelID: "subject", Preset: "nope"})
	assert.ErrorIs(t, err, core.ErrPresetNotFound)

	_, err = svc.Rank(context.Background(), ComparablesRequest{ParcelID: "missing"})
	assert.ErrorIs(t, err, core.ErrParcelNotFound)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = svc.Rank(context.Background(), ComparablesRequest{ParcelID: "subject", Limit: 1000})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	result, err := svc.Rank(context.Background(), ComparablesRequest{ParcelID: "subject"})
	require.NoError(t, err)
	assert.Empty(t, result.Comparables)
	assert.Equal(t, []analytics.FieldSpec(config.BuiltinPresets()["residential"]), result.Fields)
}
