package config

import (
	"os"
	"strconv"
	"strings"

	"assessr/domain/analytics"
	"assessr/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Analytics AnalyticsConfig
	Export    ExportConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AnalyticsConfig holds defaults for ratio and comparables requests
type AnalyticsConfig struct {
	DefaultBinWidth   float64
	DefaultTrimFactor *float64 // nil disables trimming
	MaxHistogramBins  int
	ComparablesLimit  int
	CandidatePoolSize int
	PresetsFile       string
	TrendConcurrency  int
}

// ExportConfig throttles CSV/XLSX downloads
type ExportConfig struct {
	RatePerSecond float64
	Burst         int
}

// ProfilingConfig toggles the /debug profiler
type ProfilingConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	analyticsConfig, err := loadAnalyticsConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analytics configuration")
	}
	config.Analytics = *analyticsConfig

	config.Server = *loadServerConfig()
	config.Export = *loadExportConfig()
	config.Profiling = ProfilingConfig{Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false)}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:          url,
		MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadAnalyticsConfig() (*AnalyticsConfig, error) {
	trim, err := ParseTrimFactor(getEnvOrDefault("RATIO_TRIM_FACTOR", "1.5"))
	if err != nil {
		return nil, err
	}

	return &AnalyticsConfig{
		DefaultBinWidth:   getEnvFloatOrDefault("RATIO_BIN_WIDTH", 0.05),
		DefaultTrimFactor: trim,
		MaxHistogramBins:  getEnvIntOrDefault("RATIO_MAX_BINS", 2000),
		ComparablesLimit:  getEnvIntOrDefault("COMPARABLES_LIMIT", 10),
		CandidatePoolSize: getEnvIntOrDefault("COMPARABLES_POOL", 500),
		PresetsFile:       getEnvOrDefault("COMPARABLES_PRESETS", ""),
		TrendConcurrency:  getEnvIntOrDefault("TREND_CONCURRENCY", 4),
	}, nil
}

func loadExportConfig() *ExportConfig {
	return &ExportConfig{
		RatePerSecond: getEnvFloatOrDefault("EXPORT_RATE_PER_SEC", 2),
		Burst:         getEnvIntOrDefault("EXPORT_BURST", 5),
	}
}

// ParseTrimFactor accepts "1.5", "3" or "none"/"" (no trimming)
func ParseTrimFactor(s string) (*float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null", "off":
		return nil, nil
	case "1.5":
		return analytics.TrimFactor(analytics.TrimStandard), nil
	case "3", "3.0":
		return analytics.TrimFactor(analytics.TrimExtreme), nil
	}
	return nil, errors.InvalidInputf("trim factor must be 1.5, 3 or none, got %q", s)
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Analytics.DefaultBinWidth <= 0 {
		return errors.ConfigInvalid("RATIO_BIN_WIDTH must be positive")
	}
	if config.Analytics.MaxHistogramBins < 1 {
		return errors.ConfigInvalid("RATIO_MAX_BINS must be at least 1")
	}
	if config.Analytics.ComparablesLimit < 1 || config.Analytics.CandidatePoolSize < config.Analytics.ComparablesLimit {
		return errors.ConfigInvalid("COMPARABLES_POOL must be at least COMPARABLES_LIMIT, which must be positive")
	}
	if config.Analytics.TrendConcurrency < 1 {
		return errors.ConfigInvalid("TREND_CONCURRENCY must be at least 1")
	}
	if config.Export.RatePerSecond <= 0 || config.Export.Burst < 1 {
		return errors.ConfigInvalid("export rate and burst must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
