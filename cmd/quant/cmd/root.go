package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/cache"
	"github.com/rustyeddy/quant/config"
	"github.com/rustyeddy/quant/dataapi"
	"github.com/rustyeddy/quant/journal"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "A backtesting platform for A-share trading strategies",
	Long: `Quant backtests trading strategies against historical bar data.

It provides tools for:
  - Running single backtests and strategy comparisons
  - Caching price data in memory and SQLite
  - Journaling runs, trades and equity curves
  - Exporting run reports

Complete documentation is available at https://github.com/rustyeddy/quant`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" {
			level = "info"
		}
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		logrus.SetLevel(lvl)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig reads the config file if given, otherwise the defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel == "" && cfg.LogLevel != "" {
		lvl, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		logrus.SetLevel(lvl)
	}
	return cfg, nil
}

// buildAPI wires the data layer from config: the LRU memory tier, the
// optional SQLite tier and the CSV fetcher.
func buildAPI(cfg *config.Config) (*dataapi.API, error) {
	capacity := cfg.Data.CacheSize
	if capacity <= 0 {
		capacity = cache.DefaultCapacity
	}
	mem := cache.NewMemory(capacity)

	var store cache.Store
	if cfg.Data.CachePath != "" {
		s, err := cache.NewSQLite(cfg.Data.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		store = s
	}

	var fetcher dataapi.Fetcher
	if cfg.Data.CSVDir != "" {
		fetcher = &dataapi.CSVFetcher{Dir: cfg.Data.CSVDir}
	}

	return dataapi.New(cache.NewTwoTier(mem, store), fetcher, dataapi.Options{
		SkipPaused: cfg.Data.SkipPaused,
	}), nil
}

// buildJournal opens the configured journal backend, nil for "none".
func buildJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.RunsFile, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}
