package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/strategies"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several strategies over the same data and compare them",
	Long: `Compare runs each named strategy over the same symbols and window,
sharing one data cache, and prints a ranking table.

Example:
  quant compare -c quant.yaml --strategies ma-cross,rsi,momentum --symbols 600000`,
	RunE: runCompare,
}

var cmpStrategies []string

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringSliceVar(&cmpStrategies, "strategies", nil, "strategy names to compare (required)")
	compareCmd.Flags().StringSliceVar(&btSymbols, "symbols", nil, "symbols to trade (overrides config)")
	compareCmd.Flags().StringVar(&btStart, "start", "", "window start, 2006-01-02 (overrides config)")
	compareCmd.Flags().StringVar(&btEnd, "end", "", "window end, 2006-01-02 (overrides config)")

	compareCmd.MarkFlagRequired("strategies")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cfg)
	if len(cfg.Backtest.Symbols) == 0 {
		return fmt.Errorf("no symbols: set backtest.symbols or --symbols")
	}

	strats := make([]strategies.Strategy, 0, len(cmpStrategies))
	for _, name := range cmpStrategies {
		strat, err := strategies.New(name, cfg.Strategy.Params)
		if err != nil {
			return fmt.Errorf("strategy %s: %w", name, err)
		}
		strats = append(strats, strat)
	}

	start, end, err := cfg.Backtest.Window()
	if err != nil {
		return err
	}

	api, err := buildAPI(cfg)
	if err != nil {
		return err
	}
	defer api.Close()

	results := backtest.Sweep(cmd.Context(), api, cfg.Backtest.Engine, strats, cfg.Backtest.Symbols, start, end)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tRETURN\tANNUAL\tMAX DD\tSHARPE\tTRADES\tWIN RATE")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", r.Strategy, r.Err)
			continue
		}
		rep := r.Result.Report
		sharpe := "n/a"
		if rep.SharpeDefined {
			sharpe = fmt.Sprintf("%.3f", rep.SharpeRatio)
		}
		winRate := "n/a"
		if rep.WinRateDefined {
			winRate = fmt.Sprintf("%.1f%%", rep.WinRate*100)
		}
		fmt.Fprintf(w, "%s\t%.2f%%\t%.2f%%\t%.2f%%\t%s\t%d\t%s\n",
			r.Strategy, rep.TotalReturn*100, rep.AnnualReturn*100,
			rep.MaxDrawdown*100, sharpe, rep.ClosedTrades, winRate)
	}
	return w.Flush()
}
