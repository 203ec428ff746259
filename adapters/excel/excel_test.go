package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV_StripsBOMAndPadsShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	content := "\uFEFFsale_id,ratio,neighborhood\r\ns1,0.95,N1\r\ns2,1.05\r\n,,\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"sale_id", "ratio", "neighborhood"}, data.Headers)
	require.Len(t, data.Rows, 2, "blank rows are skipped")
	assert.Equal(t, "", data.Rows[1]["neighborhood"])

	recs := data.Records()
	assert.True(t, recs[1].Field("neighborhood").IsNull())
	assert.Equal(t, "N1", recs[0].Field("neighborhood").String())
}

func TestReadData_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.xlsx")).ReadData()
	assert.Error(t, err)
}

func TestRatioRecord(t *testing.T) {
	data := &SheetData{
		Headers: []string{"ratio", "sale_price", "assessed_value"},
		Rows: []RawRowData{
			{"ratio": "0.9", "sale_price": "100000", "assessed_value": "90000"},
			{"ratio": "", "sale_price": "$200,000", "assessed_value": "210,000"},
			{"ratio": "n/a", "sale_price": "0", "assessed_value": "1000"},
		},
	}
	recs := data.RatioRecords(DefaultRatioColumns())

	r, ok := recs[0].RatioValue()
	assert.True(t, ok)
	assert.Equal(t, 0.9, r)

	r, ok = recs[1].RatioValue()
	assert.True(t, ok)
	assert.InDelta(t, 1.05, r, 1e-12)
	price, assessed, ok := recs[1].SaleAmounts()
	assert.True(t, ok)
	assert.Equal(t, 200000.0, price)
	assert.Equal(t, 210000.0, assessed)

	_, ok = recs[2].RatioValue()
	assert.False(t, ok, "zero price and unparseable ratio yield no ratio")
}

func TestWriteWorkbook_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf,
		Sheet{Name: "Statistics", Header: []string{"group", "median", "n"}, Rows: [][]string{{"N1", "0.9800", "12"}, {"N2", "", "0"}}},
		Sheet{Name: "Histogram", Header: []string{"bin_start", "count"}, Rows: [][]string{{"0.95", "3"}}},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Statistics", "Histogram"}, f.GetSheetList())

	rows, err := f.GetRows("Statistics")
	require.NoError(t, err)
	assert.Equal(t, []string{"group", "median", "n"}, rows[0])
	assert.Equal(t, "N1", rows[1][0])
	assert.Equal(t, "0.98", rows[1][1])

	typ, err := f.GetCellType("Statistics", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)

	// Round-tripped through the reader the sheet keeps its shape
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, f.SaveAs(path))
	data, err := NewDataReader(path).WithSheet("Histogram").ReadData()
	require.NoError(t, err)
	assert.Equal(t, "3", data.Rows[0]["count"])
}

func TestWriteWorkbook_NoSheets(t *testing.T) {
	assert.Error(t, WriteWorkbook(&bytes.Buffer{}))
}
