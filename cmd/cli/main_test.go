package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const salesCSV = `parcel_id,neighborhood,sale_price,assessed_value,ratio,living_area,year_built
A1,N1,100000,90000,,1500,1990
A2,N1,200000,200000,1.0,1500,1990
A3,N2,"$150,000",165000,,3000,1950
A4,N2,100000,500000,5.0,2000,1980
`

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStats_GroupedCSV(t *testing.T) {
	out, err := run(t, "stats", writeSales(t), "--group-by", "neighborhood", "--trim", "none", "--format", "csv")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "\uFEFFgroup_key,n,median,min,max,avg\r\n"))
	assert.Contains(t, out, "N1,2,0.9500,0.9000,1.0000,0.9500\r\n")
	assert.Contains(t, out, "N2,2,3.0500,1.1000,5.0000,3.0500\r\n")
}

func TestStats_TableDefaultTrim(t *testing.T) {
	out, err := run(t, "stats", writeSales(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "group_key"))
	assert.Equal(t, []string{"3", "1.0000", "0.9000", "1.1000", "1.0000"}, strings.Fields(lines[1]), "the 5.0 sale is trimmed")
}

func TestStudy_JSONFromEnv(t *testing.T) {
	t.Setenv("ASSESSR_FORMAT", "json")
	t.Setenv("ASSESSR_TRIM", "none")

	out, err := run(t, "study", writeSales(t))
	require.NoError(t, err)

	var study struct {
		N      int      `json:"n"`
		Median *float64 `json:"median"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &study), out)
	assert.Equal(t, 4, study.N)
	require.NotNil(t, study.Median)
	assert.InDelta(t, 1.05, *study.Median, 1e-9)
}

func TestHistogram(t *testing.T) {
	path := writeSales(t)

	out, err := run(t, "histogram", path, "--bin-width", "0.5", "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\r\n")
	require.Len(t, lines, 11, "header plus bins 0.5 through 5.0")
	assert.Equal(t, "\uFEFFbin_start,count", lines[0])
	assert.Equal(t, "0.5,1", lines[1])
	assert.Equal(t, "1,2", lines[2])
	assert.Equal(t, "5,1", lines[10])

	_, err = run(t, "histogram", path, "--bin-width", "0.5", "--max-bins", "5")
	assert.ErrorContains(t, err, "would produce 10 bins")
}

func TestComparables(t *testing.T) {
	out, err := run(t, "comparables", writeSales(t), "--subject", "A1", "--limit", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"1", "A2", "0.0000"}, strings.Fields(lines[1]))
	assert.Equal(t, "2", strings.Fields(lines[2])[0])

	_, err = run(t, "comparables", writeSales(t), "--subject", "Z9")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "comparables", writeSales(t), "--subject", "A1", "--preset", "castles")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	path := writeSales(t)
	dir := t.TempDir()

	xlsx := filepath.Join(dir, "ratios.xlsx")
	out, err := run(t, "export", path, "--out", xlsx, "--group-by", "neighborhood")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 groups")

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Statistics", "Histogram"}, f.GetSheetList())

	csvPath := filepath.Join(dir, "ratios.csv")
	_, err = run(t, "export", path, "-o", csvPath)
	require.NoError(t, err)
	body, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\xEF\xBB\xBF")))

	_, err = run(t, "export", path, "--out", filepath.Join(dir, "ratios.txt"))
	assert.ErrorContains(t, err, "unsupported export extension")
}

func TestConfigFile_FlagsWin(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "assessr.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: csv\ntrim: none\n"), 0o644))
	path := writeSales(t)

	out, err := run(t, "stats", path, "--config", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "\uFEFF"))

	out, err = run(t, "stats", path, "--config", cfg, "--format", "table")
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(out, "\uFEFF"))

	_, err = run(t, "stats", path, "--format", "xml")
	assert.ErrorContains(t, err, "format must be")

	_, err = run(t, "stats", path, "--trim", "2")
	assert.Error(t, err)
}
