package config

import (
	"os"
	"path/filepath"
	"testing"

	"assessr/domain/analytics"
	"assessr/domain/core"
	"assessr/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/assessr?sslmode=disable")
	t.Setenv("RATIO_TRIM_FACTOR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.05, cfg.Analytics.DefaultBinWidth)
	require.NotNil(t, cfg.Analytics.DefaultTrimFactor)
	assert.Equal(t, analytics.TrimStandard, *cfg.Analytics.DefaultTrimFactor)
	assert.Equal(t, 10, cfg.Analytics.ComparablesLimit)
	assert.False(t, cfg.Profiling.Enabled)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/assessr")
	t.Setenv("RATIO_TRIM_FACTOR", "none")
	t.Setenv("RATIO_BIN_WIDTH", "0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("COMPARABLES_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Analytics.DefaultTrimFactor)
	assert.Equal(t, 0.1, cfg.Analytics.DefaultBinWidth)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Analytics.ComparablesLimit)
}

func TestLoad_RejectsBadTrim(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/assessr")
	t.Setenv("RATIO_TRIM_FACTOR", "2")
	_, err := Load()
	assert.Error(t, err)
}

func TestParseTrimFactor(t *testing.T) {
	f, err := ParseTrimFactor("3")
	require.NoError(t, err)
	assert.Equal(t, analytics.TrimExtreme, *f)

	f, err = ParseTrimFactor("NONE")
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = ParseTrimFactor("1.0")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestPresets(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)
	assert.Equal(t, []string{"land", "residential"}, presets.Names())

	fields, err := presets.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "living_area", fields[0].Key)

	_, err = presets.Lookup("commercial")
	assert.ErrorIs(t, err, core.ErrPresetNotFound)
}

func TestLoadPresets_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  commercial:
    - {key: living_area, type: numeric, weight: 2}
    - {key: property_class, type: categorical}
  land:
    - {key: land_area, type: numeric}
`), 0o644))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"commercial", "land", "residential"}, presets.Names())

	commercial, err := presets.Lookup("commercial")
	require.NoError(t, err)
	assert.Equal(t, analytics.FieldSpec{Key: "living_area", Type: analytics.FieldNumeric, Weight: analytics.Weight(2)}, commercial[0])
	assert.Equal(t, 1.0, commercial[1].EffectiveWeight())

	land, _ := presets.Lookup("land")
	assert.Len(t, land, 1, "file presets replace built-ins")
}

func TestParsePresets_Invalid(t *testing.T) {
	_, err := ParsePresets([]byte("presets:\n  bad:\n    - {key: x, type: ordinal}\n"), nil)
	assert.Error(t, err)

	_, err = ParsePresets([]byte("presets: ["), nil)
	assert.Error(t, err)

	_, err = ParsePresets([]byte("presets:\n  empty: []\n"), nil)
	assert.Error(t, err)

	_, err = ParsePresets([]byte("presets:\n  neg:\n    - {key: x, type: numeric, weight: -1}\n"), nil)
	assert.Error(t, err)
}

func TestParsePresets_ZeroWeightKept(t *testing.T) {
	presets, err := ParsePresets([]byte("presets:\n  lot:\n    - {key: land_area, type: numeric}\n    - {key: pool, type: boolean, weight: 0}\n"), nil)
	require.NoError(t, err)

	lot, err := presets.Lookup("lot")
	require.NoError(t, err)
	assert.Equal(t, 1.0, lot[0].EffectiveWeight())
	require.NotNil(t, lot[1].Weight)
	assert.Equal(t, 0.0, lot[1].EffectiveWeight())
}
