// Package config loads and validates run configuration from YAML or
// JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/strategies"
)

// Config is the complete configuration for a backtest invocation.
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	LogLevel string         `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// BacktestConfig selects symbols, the date window and the engine
// parameters.
type BacktestConfig struct {
	Symbols []string `json:"symbols" yaml:"symbols"`
	Start   string   `json:"start,omitempty" yaml:"start,omitempty"` // 2006-01-02
	End     string   `json:"end,omitempty" yaml:"end,omitempty"`

	Engine backtest.Config `json:"engine" yaml:"engine"`
}

// Window parses the configured date strings. A zero time means the
// data layer's default window applies.
func (b BacktestConfig) Window() (start, end time.Time, err error) {
	if b.Start != "" {
		start, err = time.Parse("2006-01-02", b.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtest.start: %w", err)
		}
	}
	if b.End != "" {
		end, err = time.Parse("2006-01-02", b.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtest.end: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest window: end %s before start %s", b.End, b.Start)
	}
	return start, end, nil
}

// StrategyConfig names a registered strategy and its parameters.
type StrategyConfig struct {
	Name   string            `json:"name" yaml:"name"`
	Params strategies.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// DataConfig tunes the data layer.
type DataConfig struct {
	// CSVDir is the root of the local bar files; empty disables the
	// CSV fetcher.
	CSVDir string `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty"`
	// CachePath is the sqlite cache file; empty runs memory-only.
	CachePath  string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
	CacheSize  int    `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
	SkipPaused bool   `json:"skip_paused,omitempty" yaml:"skip_paused,omitempty"`
}

// JournalConfig selects the run journal backend.
type JournalConfig struct {
	Type       string `json:"type,omitempty" yaml:"type,omitempty"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// Default returns the configuration used when no file is given: the
// default engine, an ma-cross strategy and no journal.
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{Engine: backtest.DefaultConfig()},
		Strategy: StrategyConfig{Name: "ma-cross"},
		Journal:  JournalConfig{Type: "none"},
		LogLevel: "info",
	}
}

// LoadFromFile reads and validates a config file. YAML is tried first,
// then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config, YAML for .yaml/.yml and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the whole configuration, including the engine's own
// validation and that the strategy is registered.
func (c *Config) Validate() error {
	if len(c.Backtest.Symbols) == 0 {
		return fmt.Errorf("backtest.symbols is required")
	}
	for _, raw := range c.Backtest.Symbols {
		if _, err := market.Normalize(raw); err != nil {
			return fmt.Errorf("backtest.symbols: %w", err)
		}
	}
	if _, _, err := c.Backtest.Window(); err != nil {
		return err
	}
	if err := c.Backtest.Engine.Validate(); err != nil {
		return fmt.Errorf("backtest.engine: %w", err)
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if _, err := strategies.New(c.Strategy.Name, c.Strategy.Params); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	switch c.Journal.Type {
	case "", "none":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal runs_file, trades_file and equity_file required for csv journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}

	if c.Data.CacheSize < 0 {
		return fmt.Errorf("data.cache_size must not be negative")
	}

	return nil
}
