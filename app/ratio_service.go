package app

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"assessr/adapters/excel"
	"assessr/domain/analytics"
	"assessr/domain/assessment"
	"assessr/internal"
	ianalytics "assessr/internal/analytics"
	"assessr/internal/config"
	"assessr/internal/errors"
	"assessr/internal/export"
	"assessr/internal/metrics"
	"assessr/ports"

	"golang.org/x/sync/errgroup"
)

// maxTrendYears bounds the fan-out of a single trend request
const maxTrendYears = 25

// RatioService runs ratio statistics, histograms and ratio studies over the
// sales ratio view
type RatioService struct {
	ratios  ports.RatioRepository
	cfg     config.AnalyticsConfig
	metrics metrics.Recorder
	logger  *internal.Logger
}

// NewRatioService creates a ratio service. A nil recorder disables metrics.
func NewRatioService(ratios ports.RatioRepository, cfg config.AnalyticsConfig, recorder metrics.Recorder, logger *internal.Logger) *RatioService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &RatioService{
		ratios:  ratios,
		cfg:     cfg,
		metrics: recorder,
		logger:  logger.With("RatioService"),
	}
}

// Defaults returns the analytics defaults the service was configured with
func (s *RatioService) Defaults() config.AnalyticsConfig {
	return s.cfg
}

// Statistics computes median/min/max/avg per group for the filtered sales
func (s *RatioService) Statistics(ctx context.Context, filter assessment.RatioFilter, opts analytics.StatisticsOptions) (groups []analytics.GroupedStatistic[assessment.RatioRow], err error) {
	defer s.observe("statistics", time.Now(), &err)

	if err := validateStatisticsOptions(opts); err != nil {
		return nil, err
	}
	rows, err := s.ratios.ListRatioRows(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ratio rows")
	}

	groups = ianalytics.ComputeStatistics(rows, opts)
	s.logger.Debug("statistics over %d rows produced %d groups", len(rows), len(groups))
	return groups, nil
}

// Histogram buckets the filtered ratios into bins of binWidth. A zero width
// uses the configured default.
func (s *RatioService) Histogram(ctx context.Context, filter assessment.RatioFilter, binWidth float64) (bins []analytics.HistogramBin, err error) {
	defer s.observe("histogram", time.Now(), &err)

	if binWidth == 0 {
		binWidth = s.cfg.DefaultBinWidth
	}
	if binWidth <= 0 || math.IsNaN(binWidth) || math.IsInf(binWidth, 0) {
		return nil, errors.InvalidInputf("bin width must be a positive number, got %v", binWidth)
	}

	rows, err := s.ratios.ListRatioRows(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ratio rows")
	}
	values := ianalytics.RatioValues(rows)

	if n := ianalytics.HistogramBinCount(values, binWidth); n > s.cfg.MaxHistogramBins {
		return nil, errors.InvalidInputf("bin width %v would produce %d bins, the limit is %d", binWidth, n, s.cfg.MaxHistogramBins)
	}
	return ianalytics.BuildHistogramBins(values, binWidth), nil
}

// Study computes level and uniformity measures for the filtered sales
func (s *RatioService) Study(ctx context.Context, filter assessment.RatioFilter, trimFactor *float64) (study *analytics.RatioStudy, err error) {
	defer s.observe("study", time.Now(), &err)

	if err := validateTrim(trimFactor); err != nil {
		return nil, err
	}
	rows, err := s.ratios.ListRatioRows(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ratio rows")
	}

	result := ianalytics.ComputeRatioStudy(rows, trimFactor)
	return &result, nil
}

// TrendPoint is one tax year of a ratio trend
type TrendPoint struct {
	TaxYear int `json:"tax_year"`
	analytics.RatioStudy
}

// Trend runs a ratio study for each tax year, loading years concurrently.
// Points are returned in ascending year order.
func (s *RatioService) Trend(ctx context.Context, filter assessment.RatioFilter, years []int, trimFactor *float64) (points []TrendPoint, err error) {
	defer s.observe("trend", time.Now(), &err)

	if err := validateTrim(trimFactor); err != nil {
		return nil, err
	}
	years = uniqueYears(years)
	if len(years) == 0 {
		return nil, errors.InvalidInput("at least one tax year is required")
	}
	if len(years) > maxTrendYears {
		return nil, errors.InvalidInputf("at most %d tax years may be requested, got %d", maxTrendYears, len(years))
	}

	points = make([]TrendPoint, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.TrendConcurrency)

	for i, year := range years {
		g.Go(func() error {
			f := filter
			f.TaxYear = year
			rows, err := s.ratios.ListRatioRows(gctx, f)
			if err != nil {
				return errors.Wrapf(err, "failed to load ratio rows for %d", year)
			}
			points[i] = TrendPoint{TaxYear: year, RatioStudy: ianalytics.ComputeRatioStudy(rows, trimFactor)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// ExportKind selects the table written by ExportCSV
type ExportKind string

const (
	ExportStatistics ExportKind = "statistics"
	ExportHistogram  ExportKind = "histogram"
	ExportSales      ExportKind = "sales"
)

// ExportRequest describes a ratio download
type ExportRequest struct {
	Filter   assessment.RatioFilter
	Options  analytics.StatisticsOptions
	BinWidth float64
	Kind     ExportKind
}

// ExportCSV writes one table of the ratio analysis as BOM-prefixed CSV
func (s *RatioService) ExportCSV(ctx context.Context, w io.Writer, req ExportRequest) error {
	header, rows, err := s.exportTable(ctx, req, req.Kind)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, header, rows)
}

// ExportXLSX writes statistics, histogram and the underlying sales as sheets
// of one workbook
func (s *RatioService) ExportXLSX(ctx context.Context, w io.Writer, req ExportRequest) error {
	var sheets []excel.Sheet
	for _, kind := range []ExportKind{ExportStatistics, ExportHistogram, ExportSales} {
		header, rows, err := s.exportTable(ctx, req, kind)
		if err != nil {
			return err
		}
		sheets = append(sheets, excel.Sheet{Name: sheetName(kind), Header: header, Rows: rows})
	}
	if err := excel.WriteWorkbook(w, sheets...); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

func (s *RatioService) exportTable(ctx context.Context, req ExportRequest, kind ExportKind) ([]string, [][]string, error) {
	switch kind {
	case ExportStatistics, "":
		groups, err := s.Statistics(ctx, req.Filter, req.Options)
		if err != nil {
			return nil, nil, err
		}
		return export.StatisticsHeader, export.StatisticsRows(groups), nil
	case ExportHistogram:
		bins, err := s.Histogram(ctx, req.Filter, req.BinWidth)
		if err != nil {
			return nil, nil, err
		}
		return export.HistogramHeader, export.HistogramRows(bins), nil
	case ExportSales:
		rows, err := s.ratios.ListRatioRows(ctx, req.Filter)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to load ratio rows")
		}
		return RatioRowHeader, RatioRowRecords(rows), nil
	}
	return nil, nil, errors.InvalidInputf("unknown export kind %q", kind)
}

// RatioRowHeader is the column layout of a sales export
var RatioRowHeader = []string{
	"sale_id", "parcel_id", "tax_year", "sale_date", "sale_price",
	"assessed_value", "ratio", "neighborhood", "property_class", "land_use",
}

// RatioRowRecords flattens sales into export records
func RatioRowRecords(rows []assessment.RatioRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		var ratio *float64
		if v, ok := r.RatioValue(); ok {
			ratio = &v
		}
		out[i] = []string{
			r.SaleID,
			r.ParcelID,
			strconv.Itoa(r.TaxYear),
			r.SaleDate.Format("2006-01-02"),
			nullDecimalString(r.SalePrice.Valid, r.SalePrice.Decimal.StringFixed(2)),
			nullDecimalString(r.AssessedValue.Valid, r.AssessedValue.Decimal.StringFixed(2)),
			export.FormatFloat(ratio),
			r.Neighborhood.V,
			r.PropertyClass.V,
			r.LandUse.V,
		}
	}
	return out
}

func nullDecimalString(valid bool, s string) string {
	if !valid {
		return ""
	}
	return s
}

func sheetName(kind ExportKind) string {
	switch kind {
	case ExportHistogram:
		return "Histogram"
	case ExportSales:
		return "Sales"
	}
	return "Statistics"
}

func (s *RatioService) observe(kind string, start time.Time, err *error) {
	s.metrics.ObserveAnalytics(kind, time.Since(start), *err)
	if *err != nil {
		s.logger.Warn("%s failed: %v", kind, *err)
	}
}

func validateStatisticsOptions(opts analytics.StatisticsOptions) error {
	seen := make(map[string]bool, len(opts.GroupBy))
	for _, field := range opts.GroupBy {
		if !assessment.IsRatioGroupField(field) {
			return errors.InvalidInputf("cannot group by %q, supported fields are %v", field, assessment.RatioGroupFields)
		}
		if seen[field] {
			return errors.InvalidInputf("group field %q listed twice", field)
		}
		seen[field] = true
	}
	return validateTrim(opts.TrimFactor)
}

func validateTrim(trimFactor *float64) error {
	if trimFactor == nil {
		return nil
	}
	switch *trimFactor {
	case analytics.TrimStandard, analytics.TrimExtreme:
		return nil
	}
	return errors.InvalidInput(fmt.Sprintf("trim factor must be %v or %v", analytics.TrimStandard, analytics.TrimExtreme))
}

func uniqueYears(years []int) []int {
	seen := make(map[int]bool, len(years))
	out := make([]int, 0, len(years))
	for _, y := range years {
		if y <= 0 || seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
