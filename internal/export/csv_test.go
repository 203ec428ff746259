package export

import (
	"bytes"
	"strings"
	"testing"

	domain "assessr/domain/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_EscapingAndBOM(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"address", "note"}, [][]string{
		{"12 Main St, Unit 4", `owner said "no"`},
		{"multi\nline", "plain"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, UTF8BOM))
	assert.Equal(t, UTF8BOM+
		"address,note\r\n"+
		"\"12 Main St, Unit 4\",\"owner said \"\"no\"\"\"\r\n"+
		"\"multi\r\nline\",plain\r\n", out, "CRLF mode also normalizes embedded newlines")
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	assert.Equal(t, UTF8BOM, buf.String())
}

func TestStatisticsRows(t *testing.T) {
	key := "A | R1"
	median, lo, hi, avg := 1.0, 0.9, 1.1, 1.0
	rows := StatisticsRows([]domain.GroupedStatistic[struct{}]{
		{GroupKey: &key, N: 3, Median: &median, Min: &lo, Max: &hi, Avg: &avg},
		{N: 0},
	})
	assert.Equal(t, [][]string{
		{"A | R1", "3", "1.0000", "0.9000", "1.1000", "1.0000"},
		{"", "0", "", "", "", ""},
	}, rows)
}

func TestHistogramRows(t *testing.T) {
	rows := HistogramRows([]domain.HistogramBin{{BinStart: 0.5, Count: 2}, {BinStart: 1, Count: 0}})
	assert.Equal(t, [][]string{{"0.5", "2"}, {"1", "0"}}, rows)
}
