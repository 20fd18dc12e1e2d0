// Package config loads the engine configuration from a YAML file with
// environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the backtest engine.
type Config struct {
	Data     Data     `yaml:"data"`
	Storage  Storage  `yaml:"storage"`
	Logging  Logging  `yaml:"logging"`
	Backtest Backtest `yaml:"backtest"`
	Risk     Risk     `yaml:"risk"`
}

// Data holds paths for the two input tables.
type Data struct {
	SignalsPath string `yaml:"signals_path"`
	MarketPath  string `yaml:"market_path"`
}

// Storage holds paths for output persistence.
type Storage struct {
	ReportDir  string `yaml:"report_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backtest defines simulation parameters.
type Backtest struct {
	// ContractMultiplier scales pnl for option-contract sizing (100 for
	// standard US equity options; defaults to 1).
	ContractMultiplier float64 `yaml:"contract_multiplier"`

	// Quantity is the number of contracts per trade.
	Quantity int `yaml:"quantity"`

	// MaxWorkers bounds matcher parallelism.
	MaxWorkers int `yaml:"max_workers"`

	// MaxSignals caps the number of signals per run; 0 means no cap.
	MaxSignals int `yaml:"max_signals"`
}

// Risk defines parameters for sizing-aware runs.
type Risk struct {
	// SizingEnabled switches per-trade position sizing on; when false the
	// fixed backtest quantity is used and the capital settings only drive
	// the post-run equity analysis.
	SizingEnabled  bool    `yaml:"sizing_enabled"`
	Capital        float64 `yaml:"capital"`
	RiskPerTrade   float64 `yaml:"risk_per_trade"`
	MaxPositionPct float64 `yaml:"max_position_pct"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: Storage{
			ReportDir:  "results",
			SQLitePath: "results/backtests.db",
		},
		Logging: Logging{Level: "info", Format: "json"},
		Backtest: Backtest{
			ContractMultiplier: 1,
			Quantity:           1,
		},
		Risk: Risk{
			Capital:        100000,
			RiskPerTrade:   0.01,
			MaxPositionPct: 0.05,
			MaxDrawdownPct: 0.2,
		},
	}
}

// Load reads the YAML configuration file at the given path, parses it over
// the defaults, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIGNALS_PATH"); v != "" {
		cfg.Data.SignalsPath = v
	}
	if v := os.Getenv("MARKET_DATA_PATH"); v != "" {
		cfg.Data.MarketPath = v
	}
	if v := os.Getenv("REPORT_DIR"); v != "" {
		cfg.Storage.ReportDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CONTRACT_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.ContractMultiplier = f
		}
	}
	if v := os.Getenv("MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backtest.MaxWorkers = n
		}
	}
	if v := os.Getenv("MAX_SIGNALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backtest.MaxSignals = n
		}
	}
	if v := os.Getenv("RISK_SIZING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Risk.SizingEnabled = b
		}
	}
}
