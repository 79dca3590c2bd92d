package dataapi

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/quant/cache"
	"github.com/rustyeddy/quant/market"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// fakeFetcher serves canned series and counts calls per symbol.
type fakeFetcher struct {
	series map[string]*market.Series
	calls  atomic.Int64
	err    error
	delay  time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time, freq market.Freq) (*market.Series, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.series[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return s.Slice(start, end), nil
}

func testSeries(symbol string, from, to int) *market.Series {
	var bars []market.Bar
	for d := from; d <= to; d++ {
		bars = append(bars, market.Bar{Time: day(d), Close: float64(d), Volume: 100})
	}
	return market.NewSeries(symbol, market.Daily, bars)
}

func newTestAPI(f Fetcher, opts Options) *API {
	return New(cache.NewTwoTier(cache.NewMemory(16), nil), f, opts)
}

func TestGetPriceNormalizesAndFetches(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{series: map[string]*market.Series{
		"000001.SZ": testSeries("000001.SZ", 1, 10),
	}}
	api := newTestAPI(f, Options{})

	got, errs := api.GetPrice(context.Background(), []string{"sz000001"}, day(1), day(10), market.Daily)
	assert.Empty(t, errs)
	assert.Contains(t, got, "000001.SZ")
	assert.Equal(t, 10, got["000001.SZ"].Len())
}

func TestGetPriceIdempotent(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{series: map[string]*market.Series{
		"000001.SZ": testSeries("000001.SZ", 1, 10),
	}}
	api := newTestAPI(f, Options{})

	_, errs := api.GetPrice(context.Background(), []string{"000001"}, day(1), day(10), market.Daily)
	assert.Empty(t, errs)
	_, errs = api.GetPrice(context.Background(), []string{"000001.SZ"}, day(1), day(10), market.Daily)
	assert.Empty(t, errs)

	// Second identical query must be served from the cache.
	assert.Equal(t, int64(1), f.calls.Load())
}

func TestGetPricePartialFailure(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{series: map[string]*market.Series{
		"000001.SZ": testSeries("000001.SZ", 1, 10),
	}}
	api := newTestAPI(f, Options{})

	got, errs := api.GetPrice(context.Background(),
		[]string{"000001", "600000", "not-a-symbol"}, day(1), day(10), market.Daily)

	// One good symbol, one fetch failure, one invalid identifier; the
	// batch still returns the good one.
	assert.Contains(t, got, "000001.SZ")
	assert.Len(t, got, 1)

	assert.True(t, errors.Is(errs["600000.SH"], ErrDataUnavailable))
	assert.True(t, errors.Is(errs["not-a-symbol"], market.ErrInvalidSymbol))
}

func TestGetPriceFetchTimeout(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		series: map[string]*market.Series{"000001.SZ": testSeries("000001.SZ", 1, 10)},
		delay:  200 * time.Millisecond,
	}
	api := newTestAPI(f, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	got, errs := api.GetPrice(ctx, []string{"000001"}, day(1), day(10), market.Daily)
	assert.Empty(t, got)
	assert.True(t, errors.Is(errs["000001.SZ"], ErrDataUnavailable))
}

func TestGetPriceSkipPaused(t *testing.T) {
	t.Parallel()

	s := testSeries("000001.SZ", 1, 10)
	s.Bars[2].Volume = 0 // suspended day
	f := &fakeFetcher{series: map[string]*market.Series{"000001.SZ": s}}
	api := newTestAPI(f, Options{SkipPaused: true})

	got, errs := api.GetPrice(context.Background(), []string{"000001"}, day(1), day(10), market.Daily)
	assert.Empty(t, errs)
	assert.Equal(t, 9, got["000001.SZ"].Len())
}

func TestGetPriceEmptySourceIsError(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{series: map[string]*market.Series{
		"000001.SZ": testSeries("000001.SZ", 1, 10),
	}}
	api := newTestAPI(f, Options{})

	// Requested window holds no bars at all.
	got, errs := api.GetPrice(context.Background(), []string{"000001"}, day(20), day(25), market.Daily)
	assert.Empty(t, got)
	assert.True(t, errors.Is(errs["000001.SZ"], ErrDataUnavailable))
}
