// Package config loads the medallion YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the medallion pipeline.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Provider Provider `yaml:"provider"`
	Pipeline Pipeline `yaml:"pipeline"`
	Logging  Logging  `yaml:"logging"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Provider selects and configures the market-data source.
type Provider struct {
	// Name is "yahoo" or "alpaca".
	Name            string `yaml:"name"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	Alpaca          Alpaca `yaml:"alpaca"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Pipeline holds the defaults for the raw/features/backtest stages.
type Pipeline struct {
	// DefaultStart is the fetch start date (YYYY-MM-DD) used when no raw
	// series exists yet.
	DefaultStart string `yaml:"default_start"`
	Interval     string `yaml:"interval"`
	// LookbackPeriod is the RSI rolling window, and also the priming offset
	// for incremental feature updates.
	LookbackPeriod int     `yaml:"lookback_period"`
	RSILower       float64 `yaml:"rsi_lower"`
	RSIUpper       float64 `yaml:"rsi_upper"`
	// RSIZeroLoss controls the indicator value when the rolling loss mean is
	// zero but the gain mean is not: "clamp" pins RSI at 100, "drop" leaves
	// it undefined so the row is excluded from the feature series.
	RSIZeroLoss string `yaml:"rsi_zero_loss"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills in
// defaults for anything left unset. A missing file is not an error: the
// defaults alone form a working configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Provider.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Provider.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Provider.Alpaca.DataURL = v
	}

	// Canonical Alpaca SDK env vars take priority over everything else.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Provider.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Provider.Alpaca.APISecret = v
	}
}

// applyDefaults fills zero-valued fields with the pipeline defaults.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/medallion.db"
	}
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "yahoo"
	}
	if cfg.Provider.RateLimitPerMin == 0 {
		cfg.Provider.RateLimitPerMin = 60
	}
	if cfg.Pipeline.DefaultStart == "" {
		cfg.Pipeline.DefaultStart = "2020-01-01"
	}
	if cfg.Pipeline.Interval == "" {
		cfg.Pipeline.Interval = "daily"
	}
	if cfg.Pipeline.LookbackPeriod == 0 {
		cfg.Pipeline.LookbackPeriod = 22
	}
	if cfg.Pipeline.RSILower == 0 {
		cfg.Pipeline.RSILower = 35
	}
	if cfg.Pipeline.RSIUpper == 0 {
		cfg.Pipeline.RSIUpper = 65
	}
	if cfg.Pipeline.RSIZeroLoss == "" {
		cfg.Pipeline.RSIZeroLoss = "clamp"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
