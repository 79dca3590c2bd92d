package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/journal"
	"github.com/rustyeddy/quant/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one strategy over historical bars",
	Long: `Backtest replays a strategy over the configured symbols and window,
prints the performance report and optionally journals the run.

Example:
  quant backtest -c quant.yaml -s ma-cross --symbols 600000,000001 --start 2023-01-01 --end 2023-12-31`,
	RunE: runBacktest,
}

var (
	btSymbols  []string
	btStrategy string
	btStart    string
	btEnd      string
	btCapital  float64
	btOrg      bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringSliceVar(&btSymbols, "symbols", nil, "symbols to trade (overrides config)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (overrides config)")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "window start, 2006-01-02 (overrides config)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "window end, 2006-01-02 (overrides config)")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 0, "initial capital (overrides config)")
	backtestCmd.Flags().BoolVar(&btOrg, "org", false, "print the run as an org-mode block")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cfg)

	strat, err := strategies.New(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	res, api, err := runOne(cmd.Context(), cfg, strat)
	if api != nil {
		defer api.Close()
	}
	if err != nil {
		return err
	}

	j, err := buildJournal(cfg)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if j != nil {
		defer j.Close()
		if err := j.RecordRun(res); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	if btOrg {
		return journal.NewRunRecord(res).WriteOrg(os.Stdout)
	}
	res.PrintReport(os.Stdout)
	return nil
}
