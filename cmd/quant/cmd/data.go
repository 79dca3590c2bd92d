package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/market"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect and prefetch price data",
}

var dataFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull symbols into the cache and show what was loaded",
	Long: `Fetch resolves each symbol, pulls its bars through the cache and
prints a per-symbol summary. Subsequent backtests over the same window
are served from the cache.

Example:
  quant data fetch -c quant.yaml --symbols 600000,sz000001 --start 2023-01-01 --end 2023-12-31`,
	RunE: runDataFetch,
}

var dataNormalizeCmd = &cobra.Command{
	Use:   "normalize [symbols...]",
	Short: "Print the canonical form of each symbol",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, raw := range args {
			sym, err := market.Normalize(raw)
			if err != nil {
				fmt.Printf("%-12s error: %v\n", raw, err)
				continue
			}
			fmt.Printf("%-12s %s\n", raw, sym)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataFetchCmd)
	dataCmd.AddCommand(dataNormalizeCmd)

	dataFetchCmd.Flags().StringSliceVar(&btSymbols, "symbols", nil, "symbols to fetch (overrides config)")
	dataFetchCmd.Flags().StringVar(&btStart, "start", "", "window start, 2006-01-02 (overrides config)")
	dataFetchCmd.Flags().StringVar(&btEnd, "end", "", "window end, 2006-01-02 (overrides config)")
}

func runDataFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cfg)
	if len(cfg.Backtest.Symbols) == 0 {
		return fmt.Errorf("no symbols: set backtest.symbols or --symbols")
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

	series, errs := api.GetPrice(cmd.Context(), cfg.Backtest.Symbols, start, end, cfg.Backtest.Engine.Freq)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tBARS\tFIRST\tLAST")
	for sym, s := range series {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			sym, s.Len(),
			s.Start().Format("2006-01-02"), s.End().Format("2006-01-02"))
	}
	for sym, err := range errs {
		fmt.Fprintf(w, "%s\terror: %v\n", sym, err)
	}
	return w.Flush()
}
