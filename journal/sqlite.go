package journal

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/quant/backtest"
)

// SQLite journals runs to a sqlite database, one transaction per run.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// RecordRun writes the run row, its trades and its equity curve
// atomically. Re-recording the same run ID fails on the primary key.
func (j *SQLite) RecordRun(res *backtest.Result) error {
	rec := NewRunRecord(res)

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, symbols, start, end,
		 initial_capital, final_equity, total_return, annual_return,
		 max_drawdown, volatility, sharpe, sharpe_ok,
		 trades, wins, losses, win_rate, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Created, rec.Strategy, joinList(rec.Symbols),
		rec.Start, rec.End,
		rec.InitialCapital, rec.FinalEquity, rec.TotalReturn, rec.AnnualReturn,
		rec.MaxDrawdown, rec.Volatility, rec.Sharpe, rec.SharpeOK,
		rec.Trades, rec.Wins, rec.Losses, rec.WinRate,
		strings.Join(rec.Warnings, "\n"),
	)
	if err != nil {
		return fmt.Errorf("journal run %s: %w", rec.RunID, err)
	}

	for _, t := range res.Trades {
		_, err = tx.Exec(`
			INSERT INTO trades
			(trade_id, run_id, symbol, units, entry_price, exit_price,
			 open_time, close_time, realized_pl)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, rec.RunID, t.Symbol, t.Units, t.EntryPrice, t.ExitPrice,
			t.OpenTime, t.CloseTime, t.RealizedPL,
		)
		if err != nil {
			return fmt.Errorf("journal trade %s: %w", t.ID, err)
		}
	}

	for _, p := range res.Curve {
		_, err = tx.Exec(`
			INSERT INTO equity (run_id, time, equity, cash)
			VALUES (?, ?, ?, ?)`,
			rec.RunID, p.Time, p.Equity, p.Cash,
		)
		if err != nil {
			return fmt.Errorf("journal equity %s: %w", rec.RunID, err)
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
