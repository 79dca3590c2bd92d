package dataapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/quant/market"
)

func writeCSV(t *testing.T, dir, symbol string, content string) {
	t.Helper()

	sub := filepath.Join(dir, "daily")
	assert.NoError(t, os.MkdirAll(sub, 0o755))
	path := filepath.Join(sub, symbol+"_daily.csv")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCSVFetcher(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeCSV(t, dir, "000001.SZ", `date,open,high,low,close,volume
2024-01-02,10.0,10.5,9.9,10.2,120000
2024-01-03,10.2,10.8,10.1,10.6,98000
2024-01-04,10.6,10.7,10.0,10.1,87000
not-a-date,1,2,3,4,5
2024-01-05,10.1,10.4,10.0,10.3,91000
`)

	f := &CSVFetcher{Dir: dir}
	s, err := f.Fetch(context.Background(), "000001.SZ", day(3), day(5), market.Daily)
	assert.NoError(t, err)

	// Header and malformed rows skipped, range filter applied.
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{10.6, 10.1, 10.3}, s.Closes())
}

func TestCSVFetcherMissingFile(t *testing.T) {
	t.Parallel()

	f := &CSVFetcher{Dir: t.TempDir()}
	_, err := f.Fetch(context.Background(), "600000.SH", day(1), day(5), market.Daily)
	assert.Error(t, err)
}
