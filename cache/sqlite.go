package cache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/quant/market"
)

const schema = `
CREATE TABLE IF NOT EXISTS ranges (
	symbol TEXT NOT NULL,
	freq TEXT NOT NULL,
	start_ts INTEGER NOT NULL,
	end_ts INTEGER NOT NULL,
	PRIMARY KEY (symbol, freq, start_ts, end_ts)
);

CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	freq TEXT NOT NULL,
	ts INTEGER NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, freq, ts)
);

CREATE INDEX IF NOT EXISTS idx_ranges_lookup ON ranges(symbol, freq);
`

// SQLite is the unbounded durable tier. One row per bar, plus a ranges
// table recording which (symbol, freq, start, end) windows have been
// fully populated, so containment lookups stay exact.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Load returns the series for key, or ErrMiss when no recorded range
// covers the requested window. Partial coverage is a miss.
func (s *SQLite) Load(key Key) (*market.Series, error) {
	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM ranges
		WHERE symbol = ? AND freq = ? AND start_ts <= ? AND end_ts >= ?
		LIMIT 1`,
		key.Symbol, string(key.Freq), key.Start, key.End,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache range lookup %s: %w", key, err)
	}

	rows, err := s.db.Query(`
		SELECT ts, open, high, low, close, volume FROM bars
		WHERE symbol = ? AND freq = ? AND ts BETWEEN ? AND ?
		ORDER BY ts ASC`,
		key.Symbol, string(key.Freq), key.Start, key.End,
	)
	if err != nil {
		return nil, fmt.Errorf("cache bar lookup %s: %w", key, err)
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var ts int64
		var b market.Bar
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("cache bar scan %s: %w", key, err)
		}
		b.Time = timeFromUnix(ts)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache bar rows %s: %w", key, err)
	}

	return market.NewSeries(key.Symbol, key.Freq, bars), nil
}

// Save writes the series and its range record in one transaction.
// Re-saving a key replaces its bars: last successful write wins.
func (s *SQLite) Save(key Key, series *market.Series) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("cache save %s: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO ranges (symbol, freq, start_ts, end_ts)
		VALUES (?, ?, ?, ?)`,
		key.Symbol, string(key.Freq), key.Start, key.End,
	); err != nil {
		return fmt.Errorf("cache save range %s: %w", key, err)
	}

	// Clear the window first: a re-save with fewer bars must not leave
	// stale rows behind.
	if _, err := tx.Exec(`
		DELETE FROM bars
		WHERE symbol = ? AND freq = ? AND ts BETWEEN ? AND ?`,
		key.Symbol, string(key.Freq), key.Start, key.End,
	); err != nil {
		return fmt.Errorf("cache save clear %s: %w", key, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (symbol, freq, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cache save prepare %s: %w", key, err)
	}
	defer stmt.Close()

	for _, b := range series.Bars {
		if _, err := stmt.Exec(
			key.Symbol, string(key.Freq), b.Time.UTC().Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("cache save bar %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Invalidate removes the exact range record and its bars.
func (s *SQLite) Invalidate(key Key) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("cache invalidate %s: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM ranges
		WHERE symbol = ? AND freq = ? AND start_ts = ? AND end_ts = ?`,
		key.Symbol, string(key.Freq), key.Start, key.End,
	); err != nil {
		return fmt.Errorf("cache invalidate range %s: %w", key, err)
	}
	if _, err := tx.Exec(`
		DELETE FROM bars
		WHERE symbol = ? AND freq = ? AND ts BETWEEN ? AND ?`,
		key.Symbol, string(key.Freq), key.Start, key.End,
	); err != nil {
		return fmt.Errorf("cache invalidate bars %s: %w", key, err)
	}

	return tx.Commit()
}

// InvalidateFunc removes every recorded range whose key matches pred.
func (s *SQLite) InvalidateFunc(pred func(Key) bool) error {
	keys, err := s.keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if pred(k) {
			if err := s.Invalidate(k); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SQLite) keys() ([]Key, error) {
	rows, err := s.db.Query(`SELECT symbol, freq, start_ts, end_ts FROM ranges`)
	if err != nil {
		return nil, fmt.Errorf("cache keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		var freq string
		if err := rows.Scan(&k.Symbol, &freq, &k.Start, &k.End); err != nil {
			return nil, fmt.Errorf("cache keys scan: %w", err)
		}
		k.Freq = market.Freq(freq)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
