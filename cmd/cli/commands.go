package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"assessr/adapters/excel"
	"assessr/domain/analytics"
	"assessr/internal"
	ianalytics "assessr/internal/analytics"
	"assessr/internal/config"
	"assessr/internal/export"

	"github.com/spf13/cobra"
)

// cli carries state shared by every subcommand
type cli struct {
	cfgFile string
	cfg     *cliConfig
	logger  *internal.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "assessr-cli",
		Short:         "Ratio statistics and comparable sales over CSV or XLSX extracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)).With("CLI")
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default ./assessr.yaml)")
	pf.Float64("bin-width", 0.05, "histogram bin width")
	pf.String("trim", "1.5", "IQR trim factor: 1.5, 3 or none")
	pf.String("sheet", "", "worksheet to read from an xlsx file (default first sheet)")
	pf.String("format", "table", "output format: table, json or csv")
	pf.String("presets", "", "YAML file with comparable presets")
	pf.String("ratio-column", "ratio", "column holding the sales ratio")
	pf.String("price-column", "sale_price", "column holding the sale price")
	pf.String("assessed-column", "assessed_value", "column holding the assessed value")
	pf.String("id-column", "parcel_id", "column identifying a parcel")
	pf.Int("max-bins", 2000, "refuse histograms with more bins than this")
	pf.String("log-level", "WARN", "ERROR, WARN, INFO, DEBUG or TRACE")

	root.AddCommand(
		c.newStatsCmd(),
		c.newHistogramCmd(),
		c.newStudyCmd(),
		c.newComparablesCmd(),
		c.newExportCmd(),
	)
	return root
}

func (c *cli) read(path string) (*excel.SheetData, error) {
	reader := excel.NewDataReader(path)
	if c.cfg.Sheet != "" {
		reader = reader.WithSheet(c.cfg.Sheet)
	}
	data, err := reader.ReadData()
	if err != nil {
		return nil, err
	}
	c.logger.Info("read %d rows with %d columns from %s", len(data.Rows), len(data.Headers), path)
	return data, nil
}

func (c *cli) newStatsCmd() *cobra.Command {
	var groupBy []string
	var raw bool

	cmd := &cobra.Command{
		Use:   "stats FILE",
		Short: "Median, min, max and mean sales ratio, optionally per group",
		Long: `Compute ratio statistics over a sales extract.

Example: assessr-cli stats sales.csv --group-by neighborhood,property_class --trim 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.read(args[0])
			if err != nil {
				return err
			}
			trim, _ := c.cfg.trimFactor()
			groups := ianalytics.ComputeStatistics(data.RatioRecords(c.cfg.ratioColumns()), analytics.StatisticsOptions{
				GroupBy:    groupBy,
				TrimFactor: trim,
				IncludeRaw: raw,
			})
			return c.writeTable(cmd.OutOrStdout(), groups, export.StatisticsHeader, export.StatisticsRows(groups))
		},
	}
	cmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "columns to group by")
	cmd.Flags().BoolVar(&raw, "raw", false, "include source rows in json output")
	return cmd
}

func (c *cli) newHistogramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "histogram FILE",
		Short: "Bucket sales ratios into fixed-width bins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.read(args[0])
			if err != nil {
				return err
			}
			bins, err := c.histogram(data)
			if err != nil {
				return err
			}
			return c.writeTable(cmd.OutOrStdout(), bins, export.HistogramHeader, export.HistogramRows(bins))
		},
	}
}

func (c *cli) histogram(data *excel.SheetData) ([]analytics.HistogramBin, error) {
	if c.cfg.BinWidth <= 0 {
		return nil, fmt.Errorf("bin width must be positive, got %v", c.cfg.BinWidth)
	}
	values := ianalytics.RatioValues(data.RatioRecords(c.cfg.ratioColumns()))
	if n := ianalytics.HistogramBinCount(values, c.cfg.BinWidth); n > c.cfg.MaxBins {
		return nil, fmt.Errorf("bin width %v would produce %d bins, the limit is %d", c.cfg.BinWidth, n, c.cfg.MaxBins)
	}
	return ianalytics.BuildHistogramBins(values, c.cfg.BinWidth), nil
}

func (c *cli) newStudyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "study FILE",
		Short: "Level and uniformity measures: median, COD, PRD, PRB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.read(args[0])
			if err != nil {
				return err
			}
			trim, _ := c.cfg.trimFactor()
			study := ianalytics.ComputeRatioStudy(data.RatioRecords(c.cfg.ratioColumns()), trim)

			rows := [][]string{
				{"n", strconv.Itoa(study.N)},
				{"trimmed", strconv.Itoa(study.Trimmed)},
				{"median", export.FormatFloat(study.Median)},
				{"mean", export.FormatFloat(study.Mean)},
				{"weighted_mean", export.FormatFloat(study.WeightedMean)},
				{"cod", export.FormatFloat(study.COD)},
				{"prd", export.FormatFloat(study.PRD)},
				{"prb", export.FormatFloat(study.PRB)},
			}
			return c.writeTable(cmd.OutOrStdout(), study, []string{"measure", "value"}, rows)
		},
	}
}

func (c *cli) newComparablesCmd() *cobra.Command {
	var subjectID, preset string
	var limit int

	cmd := &cobra.Command{
		Use:   "comparables FILE",
		Short: "Rank parcels in FILE by Gower distance to a subject parcel",
		Long: `Rank every other row of FILE against the subject row.

Example: assessr-cli comparables parcels.xlsx --subject 12-345-678 --preset residential --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := config.LoadPresets(c.cfg.PresetsFile)
			if err != nil {
				return err
			}
			fields, err := presets.Lookup(preset)
			if err != nil {
				return err
			}
			data, err := c.read(args[0])
			if err != nil {
				return err
			}

			var subject analytics.Record
			var candidates []analytics.Record
			for _, rec := range data.Records() {
				if rec.Field(c.cfg.IDColumn).String() == subjectID {
					subject = rec
					continue
				}
				candidates = append(candidates, rec)
			}
			if subject == nil {
				return fmt.Errorf("subject %q not found in column %q", subjectID, c.cfg.IDColumn)
			}

			ranked := ianalytics.GowerDistances(subject, candidates, fields)
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}

			rows := make([][]string, len(ranked))
			for i, r := range ranked {
				rows[i] = []string{strconv.Itoa(i + 1), r.Item.Field(c.cfg.IDColumn).String(), strconv.FormatFloat(r.Distance, 'f', 4, 64)}
			}
			return c.writeTable(cmd.OutOrStdout(), ranked, []string{"rank", c.cfg.IDColumn, "distance"}, rows)
		},
	}
	cmd.Flags().StringVar(&subjectID, "subject", "", "identifier of the subject parcel")
	cmd.Flags().StringVar(&preset, "preset", config.DefaultPreset, "comparable field preset")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of comparables to show, 0 for all")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func (c *cli) newExportCmd() *cobra.Command {
	var out string
	var groupBy []string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write statistics and histogram to a CSV or XLSX file",
		Long: `Export ratio statistics. A .xlsx destination gets Statistics and Histogram
sheets; a .csv destination gets the statistics table with a byte order mark.

Example: assessr-cli export sales.xlsx --out ratios.xlsx --group-by neighborhood`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.read(args[0])
			if err != nil {
				return err
			}
			trim, _ := c.cfg.trimFactor()
			groups := ianalytics.ComputeStatistics(data.RatioRecords(c.cfg.ratioColumns()), analytics.StatisticsOptions{GroupBy: groupBy, TrimFactor: trim})

			sheets := []excel.Sheet{{Name: "Statistics", Header: export.StatisticsHeader, Rows: export.StatisticsRows(groups)}}
			ext := strings.ToLower(filepath.Ext(out))
			switch ext {
			case ".csv":
			case ".xlsx":
				bins, err := c.histogram(data)
				if err != nil {
					return err
				}
				sheets = append(sheets, excel.Sheet{Name: "Histogram", Header: export.HistogramHeader, Rows: export.HistogramRows(bins)})
			default:
				return fmt.Errorf("unsupported export extension %q, use .csv or .xlsx", filepath.Ext(out))
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()

			if ext == ".csv" {
				err = export.WriteCSV(f, sheets[0].Header, sheets[0].Rows)
			} else {
				err = excel.WriteWorkbook(f, sheets...)
			}
			if err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d groups to %s\n", len(groups), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination file (.csv or .xlsx)")
	cmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "columns to group by")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// writeTable renders v as JSON, or rows as CSV or an aligned text table
func (c *cli) writeTable(w io.Writer, v interface{}, header []string, rows [][]string) error {
	switch c.cfg.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "csv":
		return export.WriteCSV(w, header, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}
