package main

import (
	"errors"
	"fmt"
	"strings"

	"assessr/adapters/excel"
	"assessr/internal/config"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// cliConfig is the resolved CLI configuration.
// Precedence: flags > ASSESSR_* env > config file > defaults.
type cliConfig struct {
	BinWidth       float64 `mapstructure:"bin-width"`
	Trim           string  `mapstructure:"trim"`
	Sheet          string  `mapstructure:"sheet"`
	Format         string  `mapstructure:"format"`
	PresetsFile    string  `mapstructure:"presets"`
	RatioColumn    string  `mapstructure:"ratio-column"`
	PriceColumn    string  `mapstructure:"price-column"`
	AssessedColumn string  `mapstructure:"assessed-column"`
	IDColumn       string  `mapstructure:"id-column"`
	MaxBins        int     `mapstructure:"max-bins"`
	LogLevel       string  `mapstructure:"log-level"`
}

func (c *cliConfig) trimFactor() (*float64, error) {
	return config.ParseTrimFactor(c.Trim)
}

func (c *cliConfig) ratioColumns() excel.RatioColumns {
	return excel.RatioColumns{Ratio: c.RatioColumn, SalePrice: c.PriceColumn, AssessedValue: c.AssessedColumn}
}

func setDefaults(v *viper.Viper) {
	cols := excel.DefaultRatioColumns()
	v.SetDefault("bin-width", 0.05)
	v.SetDefault("trim", "1.5")
	v.SetDefault("format", "table")
	v.SetDefault("ratio-column", cols.Ratio)
	v.SetDefault("price-column", cols.SalePrice)
	v.SetDefault("assessed-column", cols.AssessedValue)
	v.SetDefault("id-column", "parcel_id")
	v.SetDefault("max-bins", 2000)
	v.SetDefault("log-level", "WARN")
}

// loadConfig resolves the CLI configuration. An explicit cfgFile must exist;
// otherwise ./assessr.yaml is read when present.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*cliConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("ASSESSR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("assessr")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c cliConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := c.trimFactor(); err != nil {
		return nil, err
	}
	switch c.Format {
	case "table", "json", "csv":
	default:
		return nil, fmt.Errorf("format must be table, json or csv, got %q", c.Format)
	}
	return &c, nil
}
