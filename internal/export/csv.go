package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	domain "assessr/domain/analytics"
)

// UTF8BOM makes spreadsheet applications open the download as UTF-8
const UTF8BOM = "\uFEFF"

// WriteCSV writes a BOM-prefixed RFC 4180 document: CRLF line endings, fields
// quoted when they contain a comma, quote or line break, and embedded quotes
// doubled
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := io.WriteString(w, UTF8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// StatisticsHeader is the column layout of a grouped statistics export
var StatisticsHeader = []string{"group_key", "n", "median", "min", "max", "avg"}

// StatisticsRows flattens grouped statistics into CSV records. Null
// aggregates become empty cells.
func StatisticsRows[T any](groups []domain.GroupedStatistic[T]) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		key := ""
		if g.GroupKey != nil {
			key = *g.GroupKey
		}
		rows = append(rows, []string{
			key,
			strconv.Itoa(g.N),
			FormatFloat(g.Median),
			FormatFloat(g.Min),
			FormatFloat(g.Max),
			FormatFloat(g.Avg),
		})
	}
	return rows
}

// HistogramHeader is the column layout of a histogram export
var HistogramHeader = []string{"bin_start", "count"}

// HistogramRows flattens histogram bins into CSV records
func HistogramRows(bins []domain.HistogramBin) [][]string {
	rows := make([][]string, len(bins))
	for i, b := range bins {
		rows[i] = []string{strconv.FormatFloat(b.BinStart, 'f', -1, 64), strconv.Itoa(b.Count)}
	}
	return rows
}

// FormatFloat renders an optional float with four decimals
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
