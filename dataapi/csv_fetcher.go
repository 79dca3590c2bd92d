package dataapi

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/quant/market"
)

// CSVFetcher serves price data from flat files, one file per
// (symbol, frequency): <dir>/<freq>/<symbol>_<freq>.csv with rows
//
//	date,open,high,low,close,volume
//
// where date is 2006-01-02. A header row is allowed; short or malformed
// rows are skipped. It is the bundled offline implementation of Fetcher.
type CSVFetcher struct {
	Dir string
}

func (f *CSVFetcher) path(symbol string, freq market.Freq) string {
	return filepath.Join(f.Dir, string(freq), fmt.Sprintf("%s_%s.csv", symbol, freq))
}

func (f *CSVFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time, freq market.Freq) (*market.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path(symbol, freq))
	if err != nil {
		return nil, fmt.Errorf("open %s data for %s: %w", freq, symbol, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	var bars []market.Bar
	sawFirst := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s data for %s: %w", freq, symbol, err)
		}

		if !sawFirst {
			sawFirst = true
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		b, ok := parseBarRow(row)
		if !ok {
			continue
		}
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		bars = append(bars, b)
	}

	return market.NewSeries(symbol, freq, bars), nil
}

func parseBarRow(row []string) (market.Bar, bool) {
	if len(row) < 6 {
		return market.Bar{}, false
	}

	t, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
	if err != nil {
		return market.Bar{}, false
	}

	vals := make([]float64, 5)
	for i := 1; i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return market.Bar{}, false
		}
		vals[i-1] = v
	}

	return market.Bar{
		Time:   t.UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true
}
