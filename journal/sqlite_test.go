package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/perf"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult(runID string) *backtest.Result {
	return &backtest.Result{
		RunID:          runID,
		Strategy:       "ma-cross",
		Symbols:        []string{"600000.SH", "000001.SZ"},
		Start:          day(1),
		End:            day(10),
		InitialCapital: 1_000_000,
		FinalEquity:    1_015_000,
		Curve: []perf.EquityPoint{
			{Time: day(1), Equity: 1_000_000, Cash: 1_000_000},
			{Time: day(5), Equity: 1_008_000, Cash: 900_000},
			{Time: day(10), Equity: 1_015_000, Cash: 1_015_000},
		},
		Trades: []perf.Trade{
			{ID: runID + "-t1", Symbol: "600000.SH", Units: 100,
				EntryPrice: 10, ExitPrice: 11.5,
				OpenTime: day(2), CloseTime: day(9), RealizedPL: 150},
		},
		Warnings: []string{"000001.SZ: short history"},
		Report: perf.Report{
			TotalReturn:  0.015,
			AnnualReturn: 0.45,
			MaxDrawdown:  0.02,
			SharpeRatio:  1.2, SharpeDefined: true,
			ClosedTrades: 1, Wins: 1,
			WinRate: 1.0, WinRateDefined: true,
		},
	}
}

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteRecordAndGetRun(t *testing.T) {
	t.Parallel()

	j := openSQLite(t)
	require.NoError(t, j.RecordRun(sampleResult("run-1")))

	rec, err := j.GetRun("run-1")
	require.NoError(t, err)

	assert.Equal(t, "ma-cross", rec.Strategy)
	assert.Equal(t, []string{"600000.SH", "000001.SZ"}, rec.Symbols)
	assert.InDelta(t, 0.015, rec.TotalReturn, 1e-12)
	assert.True(t, rec.SharpeOK)
	assert.Equal(t, 1, rec.Trades)
	assert.Equal(t, []string{"000001.SZ: short history"}, rec.Warnings)
}

func TestSQLiteRunNotFound(t *testing.T) {
	t.Parallel()

	j := openSQLite(t)
	_, err := j.GetRun("nope")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteDuplicateRunRejected(t *testing.T) {
	t.Parallel()

	j := openSQLite(t)
	require.NoError(t, j.RecordRun(sampleResult("run-1")))
	assert.Error(t, j.RecordRun(sampleResult("run-1")))
}

func TestSQLiteListTradesAndEquity(t *testing.T) {
	t.Parallel()

	j := openSQLite(t)
	require.NoError(t, j.RecordRun(sampleResult("run-1")))
	require.NoError(t, j.RecordRun(sampleResult("run-2")))

	trades, err := j.ListTradesByRun("run-1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "run-1-t1", trades[0].ID)
	assert.InDelta(t, 150.0, trades[0].RealizedPL, 1e-9)

	curve, err := j.ListEquityByRun("run-2")
	require.NoError(t, err)
	require.Len(t, curve, 3)
	assert.True(t, curve[0].Time.Before(curve[2].Time))
	assert.InDelta(t, 1_015_000.0, curve[2].Equity, 1e-9)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()

	j := openSQLite(t)
	require.NoError(t, j.RecordRun(sampleResult("run-a")))
	require.NoError(t, j.RecordRun(sampleResult("run-b")))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
