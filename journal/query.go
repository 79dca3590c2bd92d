package journal

import (
	"database/sql"
	"fmt"

	"github.com/rustyeddy/quant/perf"
)

const runColumns = `run_id, created, strategy, symbols, start, end,
	initial_capital, final_equity, total_return, annual_return,
	max_drawdown, volatility, sharpe, sharpe_ok,
	trades, wins, losses, win_rate, warnings`

// GetRun returns one run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %q not found", runID)
	}
	return rec, err
}

// ListRuns returns all run summaries, most recent first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesByRun returns the run's closed trades, ordered by close time.
func (j *SQLite) ListTradesByRun(runID string) ([]perf.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, units, entry_price, exit_price,
		       open_time, close_time, realized_pl
		FROM trades
		WHERE run_id = ?
		ORDER BY close_time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []perf.Trade
	for rows.Next() {
		var t perf.Trade
		if err := rows.Scan(
			&t.ID, &t.Symbol, &t.Units, &t.EntryPrice, &t.ExitPrice,
			&t.OpenTime, &t.CloseTime, &t.RealizedPL,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquityByRun returns the run's equity curve, ordered by time.
func (j *SQLite) ListEquityByRun(runID string) ([]perf.EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT time, equity, cash
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []perf.EquityPoint
	for rows.Next() {
		var p perf.EquityPoint
		if err := rows.Scan(&p.Time, &p.Equity, &p.Cash); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var symbols, warnings string
	err := row.Scan(
		&rec.RunID, &rec.Created, &rec.Strategy, &symbols,
		&rec.Start, &rec.End,
		&rec.InitialCapital, &rec.FinalEquity, &rec.TotalReturn, &rec.AnnualReturn,
		&rec.MaxDrawdown, &rec.Volatility, &rec.Sharpe, &rec.SharpeOK,
		&rec.Trades, &rec.Wins, &rec.Losses, &rec.WinRate, &warnings,
	)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Symbols = splitList(symbols)
	if warnings != "" {
		rec.Warnings = splitLines(warnings)
	}
	return rec, nil
}
