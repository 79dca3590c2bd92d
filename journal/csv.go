package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/quant/backtest"
)

// CSV journals runs as three flat files: runs, trades and equity rows,
// each carrying the run ID. Rows are flushed per run.
type CSV struct {
	runs   *csv.Writer
	trades *csv.Writer
	equity *csv.Writer
	files  []*os.File
}

func NewCSV(runsPath, tradesPath, equityPath string) (*CSV, error) {
	j := &CSV{}

	for _, p := range []struct {
		path   string
		header []string
		dest   **csv.Writer
	}{
		{runsPath, []string{
			"run_id", "created", "strategy", "symbols", "start", "end",
			"initial_capital", "final_equity", "total_return", "max_drawdown",
			"sharpe", "trades", "wins", "losses", "win_rate",
		}, &j.runs},
		{tradesPath, []string{
			"trade_id", "run_id", "symbol", "units", "entry_price",
			"exit_price", "open_time", "close_time", "realized_pl",
		}, &j.trades},
		{equityPath, []string{"run_id", "time", "equity", "cash"}, &j.equity},
	} {
		f, err := os.Create(p.path)
		if err != nil {
			j.Close()
			return nil, err
		}
		j.files = append(j.files, f)

		w := csv.NewWriter(f)
		if err := w.Write(p.header); err != nil {
			j.Close()
			return nil, err
		}
		*p.dest = w
	}

	return j, nil
}

func (j *CSV) RecordRun(res *backtest.Result) error {
	rec := NewRunRecord(res)

	j.runs.Write([]string{
		rec.RunID,
		rec.Created.Format(time.RFC3339),
		rec.Strategy,
		joinList(rec.Symbols),
		rec.Start.Format(time.RFC3339),
		rec.End.Format(time.RFC3339),
		f(rec.InitialCapital),
		f(rec.FinalEquity),
		f(rec.TotalReturn),
		f(rec.MaxDrawdown),
		f(rec.Sharpe),
		strconv.Itoa(rec.Trades),
		strconv.Itoa(rec.Wins),
		strconv.Itoa(rec.Losses),
		f(rec.WinRate),
	})

	for _, t := range res.Trades {
		j.trades.Write([]string{
			t.ID,
			rec.RunID,
			t.Symbol,
			f(t.Units),
			f(t.EntryPrice),
			f(t.ExitPrice),
			t.OpenTime.Format(time.RFC3339),
			t.CloseTime.Format(time.RFC3339),
			f(t.RealizedPL),
		})
	}

	for _, p := range res.Curve {
		j.equity.Write([]string{
			rec.RunID,
			p.Time.Format(time.RFC3339),
			f(p.Equity),
			f(p.Cash),
		})
	}

	return j.flush()
}

func (j *CSV) flush() error {
	for _, w := range []*csv.Writer{j.runs, j.trades, j.equity} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (j *CSV) Close() error {
	err := j.flush()
	for _, f := range j.files {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
