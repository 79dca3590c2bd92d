package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/backtest"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search a strategy's parameters",
	Long: `Optimize runs one backtest per parameter combination and ranks the
results by the chosen metric (sharpe, total_return, annual_return or
max_drawdown).

The grid is given as name=v1,v2,...;name=v1,v2,... pairs.

Example:
  quant optimize -c quant.yaml -s ma-cross \
    --grid "short_window=3,5,10;long_window=20,30,60" --metric sharpe`,
	RunE: runOptimize,
}

var (
	optGrid   string
	optMetric string
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (overrides config)")
	optimizeCmd.Flags().StringVar(&optGrid, "grid", "", "parameter grid, e.g. \"short_window=3,5;long_window=20,30\" (required)")
	optimizeCmd.Flags().StringVar(&optMetric, "metric", string(backtest.MetricSharpe), "ranking metric")
	optimizeCmd.Flags().StringSliceVar(&btSymbols, "symbols", nil, "symbols to trade (overrides config)")
	optimizeCmd.Flags().StringVar(&btStart, "start", "", "window start, 2006-01-02 (overrides config)")
	optimizeCmd.Flags().StringVar(&btEnd, "end", "", "window end, 2006-01-02 (overrides config)")

	optimizeCmd.MarkFlagRequired("grid")
}

// parseGrid turns "a=1,2;b=3" into a Grid.
func parseGrid(s string) (backtest.Grid, error) {
	grid := make(backtest.Grid)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, list, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("grid: %q is not name=v1,v2,...", part)
		}
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("grid: %s: %w", name, err)
			}
			grid[name] = append(grid[name], v)
		}
		if len(grid[name]) == 0 {
			return nil, fmt.Errorf("grid: %s has no values", name)
		}
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("grid: no parameters")
	}
	return grid, nil
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", k, p[k]))
	}
	return strings.Join(parts, " ")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cfg)
	if len(cfg.Backtest.Symbols) == 0 {
		return fmt.Errorf("no symbols: set backtest.symbols or --symbols")
	}

	grid, err := parseGrid(optGrid)
	if err != nil {
		return err
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

	opt, err := backtest.Optimize(cmd.Context(), api, cfg.Backtest.Engine,
		cfg.Strategy.Name, grid, backtest.Metric(optMetric),
		cfg.Backtest.Symbols, start, end)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMS\tRETURN\tANNUAL\tMAX DD\tSHARPE\tTRADES")
	for i := range opt.Runs {
		run := &opt.Runs[i]
		if run.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", formatParams(run.Params), run.Err)
			continue
		}
		rep := run.Result.Report
		sharpe := "n/a"
		if rep.SharpeDefined {
			sharpe = fmt.Sprintf("%.3f", rep.SharpeRatio)
		}
		fmt.Fprintf(w, "%s\t%.2f%%\t%.2f%%\t%.2f%%\t%s\t%d\n",
			formatParams(run.Params), rep.TotalReturn*100, rep.AnnualReturn*100,
			rep.MaxDrawdown*100, sharpe, rep.ClosedTrades)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nBest by %s: %s\n", opt.Metric, formatParams(opt.Best.Params))
	return nil
}
