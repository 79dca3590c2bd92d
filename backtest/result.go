package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/quant/perf"
	"github.com/rustyeddy/quant/pkg/id"
	"github.com/rustyeddy/quant/strategies"
)

// Fill records one executed order, after sizing, slippage and fees.
type Fill struct {
	Symbol string
	Time   time.Time
	Action strategies.Action
	Qty    float64
	Price  float64
	Fee    float64
}

// Result is the full outcome of one run: the equity curve, the fills and
// closed trades, warnings collected along the way, and the performance
// report.
type Result struct {
	RunID    string
	Strategy string
	Symbols  []string
	Start    time.Time
	End      time.Time

	InitialCapital float64
	FinalEquity    float64

	Curve    []perf.EquityPoint
	Trades   []perf.Trade
	Fills    []Fill
	Warnings []string

	Report perf.Report

	cfg Config
}

func newResult(strategy string, symbols []string, start, end time.Time, cfg Config) *Result {
	return &Result{
		RunID:          id.New(),
		Strategy:       strategy,
		Symbols:        symbols,
		Start:          start,
		End:            end,
		InitialCapital: cfg.InitialCapital,
		cfg:            cfg,
	}
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) finish(port *Portfolio, lastClose map[string]float64) {
	r.FinalEquity = port.Equity(lastClose)
	if len(r.Curve) == 0 {
		r.FinalEquity = r.InitialCapital
	}
	r.Report = perf.Analyze(r.InitialCapital, r.Curve, r.Trades, r.cfg.Analyzer)
}

// PrintReport writes a human-readable summary to w.
func (r *Result) PrintReport(w io.Writer) {
	fmt.Fprintf(w, "Run        %s\n", r.RunID)
	fmt.Fprintf(w, "Strategy   %s\n", r.Strategy)
	fmt.Fprintf(w, "Symbols    %v\n", r.Symbols)
	fmt.Fprintf(w, "Window     %s .. %s\n",
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Initial    %14.2f\n", r.InitialCapital)
	fmt.Fprintf(w, "Final      %14.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Return     %13.2f%%\n", r.Report.TotalReturn*100)
	fmt.Fprintf(w, "Annualized %13.2f%%\n", r.Report.AnnualReturn*100)
	fmt.Fprintf(w, "Max DD     %13.2f%%\n", r.Report.MaxDrawdown*100)
	fmt.Fprintf(w, "Volatility %13.2f%%\n", r.Report.Volatility*100)
	if r.Report.SharpeDefined {
		fmt.Fprintf(w, "Sharpe     %14.3f\n", r.Report.SharpeRatio)
	} else {
		fmt.Fprintf(w, "Sharpe     %14s\n", "n/a")
	}
	if r.Report.BenchmarkDefined {
		fmt.Fprintf(w, "Benchmark  %13.2f%%\n", r.Report.BenchmarkReturn*100)
		fmt.Fprintf(w, "Alpha      %14.3f\n", r.Report.Alpha)
		fmt.Fprintf(w, "Beta       %14.3f\n", r.Report.Beta)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Fills      %14d\n", len(r.Fills))
	fmt.Fprintf(w, "Trades     %14d  (%d wins / %d losses)\n",
		r.Report.ClosedTrades, r.Report.Wins, r.Report.Losses)
	if r.Report.WinRateDefined {
		fmt.Fprintf(w, "Win rate   %13.2f%%\n", r.Report.WinRate*100)
	}
	if r.Report.PLRatioDefined {
		fmt.Fprintf(w, "P/L ratio  %14.3f\n", r.Report.ProfitLossRatio)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(r.Warnings))
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
}
