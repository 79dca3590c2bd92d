// Package journal persists completed backtest runs: the run summary,
// its closed trades and its equity curve, keyed by run ID.
package journal

import (
	"strings"
	"time"

	"github.com/rustyeddy/quant/backtest"
)

// Journal is the persistence contract for completed runs.
type Journal interface {
	RecordRun(*backtest.Result) error
	Close() error
}

// RunRecord mirrors the runs table: the flattened summary of one run.
type RunRecord struct {
	RunID    string
	Created  time.Time
	Strategy string
	Symbols  []string
	Start    time.Time
	End      time.Time

	InitialCapital float64
	FinalEquity    float64

	TotalReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	Volatility   float64
	Sharpe       float64
	SharpeOK     bool

	Trades  int
	Wins    int
	Losses  int
	WinRate float64

	Warnings []string
}

// NewRunRecord flattens a result into its journal row.
func NewRunRecord(res *backtest.Result) RunRecord {
	return RunRecord{
		RunID:          res.RunID,
		Created:        time.Now().UTC(),
		Strategy:       res.Strategy,
		Symbols:        res.Symbols,
		Start:          res.Start,
		End:            res.End,
		InitialCapital: res.InitialCapital,
		FinalEquity:    res.FinalEquity,
		TotalReturn:    res.Report.TotalReturn,
		AnnualReturn:   res.Report.AnnualReturn,
		MaxDrawdown:    res.Report.MaxDrawdown,
		Volatility:     res.Report.Volatility,
		Sharpe:         res.Report.SharpeRatio,
		SharpeOK:       res.Report.SharpeDefined,
		Trades:         res.Report.ClosedTrades,
		Wins:           res.Report.Wins,
		Losses:         res.Report.Losses,
		WinRate:        res.Report.WinRate,
		Warnings:       res.Warnings,
	}
}

func joinList(items []string) string { return strings.Join(items, ",") }

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func splitLines(s string) []string { return strings.Split(s, "\n") }
