// Package config loads the folio configuration from defaults, TOML files,
// a .env file and FOLIO_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/etnz/folio"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the complete configuration of the fol tool.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Ledger  LedgerConfig  `toml:"ledger"`
	Signals SignalsConfig `toml:"signals"`
	EODHD   EODHDConfig   `toml:"eodhd"`
}

type StorageConfig struct {
	// Path is the directory of the badger database.
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // trace, debug, info, warn, error
}

type LedgerConfig struct {
	CashCode           string `toml:"cash_code"`
	Currency           string `toml:"currency"`
	EnforceCashBalance bool   `toml:"enforce_cash_balance"`
}

type SignalsConfig struct {
	StopGainPct     float64 `toml:"stop_gain_pct"`
	StopLossPct     float64 `toml:"stop_loss_pct"`
	OverweightBand  float64 `toml:"overweight_band"`
	LookbackDays    int     `toml:"lookback_days"`
	StructureWindow int     `toml:"structure_window"`
	// Schedule is the cron expression of the daily fetch and evaluation.
	Schedule string `toml:"schedule"`
}

type EODHDConfig struct {
	APIKey    string        `toml:"api_key"`
	BaseURL   string        `toml:"base_url"`
	RateLimit int           `toml:"rate_limit"` // requests per second
	CacheTTL  Duration `toml:"cache_ttl"`
	Timeout   Duration `toml:"timeout"`
}

// Duration is a time.Duration written as "10m" or "1h30m" in TOML files.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// NewDefaultConfig returns the configuration used when nothing is set.
func NewDefaultConfig() *Config {
	s := folio.DefaultSettings()
	return &Config{
		Storage: StorageConfig{Path: defaultStoragePath()},
		Logging: LoggingConfig{Level: "info"},
		Ledger: LedgerConfig{
			CashCode:           s.CashCode,
			Currency:           s.Currency,
			EnforceCashBalance: s.EnforceCashBalance,
		},
		Signals: SignalsConfig{
			StopGainPct:     s.StopGainPct,
			StopLossPct:     s.StopLossPct,
			OverweightBand:  s.OverweightBand,
			LookbackDays:    s.LookbackDays,
			StructureWindow: s.StructureWindow,
			Schedule:        "0 18 * * 1-5",
		},
		EODHD: EODHDConfig{
			BaseURL:   "https://eodhd.com/api",
			RateLimit: 5,
			CacheTTL:  Duration(time.Hour),
			Timeout:   Duration(30 * time.Second),
		},
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".folio"
	}
	return filepath.Join(dir, "folio", "db")
}

// Load reads the configuration. Later files override earlier ones, missing
// files are skipped. A .env file in the working directory is loaded
// before the environment overrides are applied.
func Load(paths ...string) (*Config, error) {
	config := NewDefaultConfig()
	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies FOLIO_* environment variables to config.
func applyEnvOverrides(config *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("FOLIO_STORAGE_PATH", &config.Storage.Path)
	str("FOLIO_LOG_LEVEL", &config.Logging.Level)
	str("FOLIO_CASH_CODE", &config.Ledger.CashCode)
	str("FOLIO_CURRENCY", &config.Ledger.Currency)
	str("FOLIO_SCHEDULE", &config.Signals.Schedule)
	str("FOLIO_EODHD_BASE_URL", &config.EODHD.BaseURL)
	str("EODHD_API_KEY", &config.EODHD.APIKey)
	str("FOLIO_EODHD_API_KEY", &config.EODHD.APIKey)

	floats := map[string]*float64{
		"FOLIO_STOP_GAIN_PCT":   &config.Signals.StopGainPct,
		"FOLIO_STOP_LOSS_PCT":   &config.Signals.StopLossPct,
		"FOLIO_OVERWEIGHT_BAND": &config.Signals.OverweightBand,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = f
		}
	}
	if v := os.Getenv("FOLIO_ENFORCE_CASH_BALANCE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FOLIO_ENFORCE_CASH_BALANCE: %w", err)
		}
		config.Ledger.EnforceCashBalance = b
	}
	return nil
}

// Settings returns the engine settings of the configuration.
func (c *Config) Settings() folio.Settings {
	return folio.Settings{
		StopGainPct:        c.Signals.StopGainPct,
		StopLossPct:        c.Signals.StopLossPct,
		OverweightBand:     c.Signals.OverweightBand,
		CashCode:           c.Ledger.CashCode,
		Currency:           c.Ledger.Currency,
		LookbackDays:       c.Signals.LookbackDays,
		StructureWindow:    c.Signals.StructureWindow,
		EnforceCashBalance: c.Ledger.EnforceCashBalance,
	}
}

// Marshal returns the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) { return toml.Marshal(c) }
