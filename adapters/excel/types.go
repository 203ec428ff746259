package excel

import (
	"math"
	"strings"

	"assessr/domain/analytics"
)

// RawRowData represents a row of raw sheet data as string key-value pairs
type RawRowData map[string]string

// SheetData represents a complete worksheet or CSV file
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Records converts every row into an analytics.Record. Blank cells become
// null; other cells stay text and are coerced by the consumer.
func (d *SheetData) Records() []analytics.Record {
	out := make([]analytics.Record, len(d.Rows))
	for i, row := range d.Rows {
		rec := make(analytics.Record, len(row))
		for k, v := range row {
			if v == "" {
				rec[k] = analytics.Null()
				continue
			}
			rec[k] = analytics.Text(v)
		}
		out[i] = rec
	}
	return out
}

// RatioColumns names the columns a ratio workbook carries
type RatioColumns struct {
	Ratio         string
	SalePrice     string
	AssessedValue string
}

// DefaultRatioColumns matches the layout of the CSV export
func DefaultRatioColumns() RatioColumns {
	return RatioColumns{Ratio: "ratio", SalePrice: "sale_price", AssessedValue: "assessed_value"}
}

// RatioRecord adapts a sheet row to the ratio study inputs. The ratio column
// wins when present; otherwise the ratio is assessed value over sale price.
type RatioRecord struct {
	analytics.Record
	cols RatioColumns
}

// RatioRecords wraps each row of d for ratio statistics
func (d *SheetData) RatioRecords(cols RatioColumns) []RatioRecord {
	recs := d.Records()
	out := make([]RatioRecord, len(recs))
	for i, r := range recs {
		out[i] = RatioRecord{Record: r, cols: cols}
	}
	return out
}

// RatioValue implements analytics.RatioSource
func (r RatioRecord) RatioValue() (float64, bool) {
	if r.cols.Ratio != "" {
		if f, ok := r.Field(r.cols.Ratio).Float(); ok {
			return f, true
		}
	}
	price, assessed, ok := r.SaleAmounts()
	if !ok {
		return 0, false
	}
	return assessed / price, true
}

// SaleAmounts implements analytics.SaleRatioSource
func (r RatioRecord) SaleAmounts() (float64, float64, bool) {
	price, ok := money(r.Field(r.cols.SalePrice))
	if !ok || price <= 0 {
		return 0, 0, false
	}
	assessed, ok := money(r.Field(r.cols.AssessedValue))
	if !ok {
		return 0, 0, false
	}
	return price, assessed, true
}

var moneyCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

func money(v analytics.Value) (float64, bool) {
	if v.Kind() == analytics.KindText {
		v = analytics.Text(moneyCleaner.Replace(v.String()))
	}
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
