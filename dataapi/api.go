// Package dataapi resolves price queries through symbol normalization and
// the two-tier cache, falling through to an external fetch collaborator
// on a miss.
package dataapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/quant/cache"
	"github.com/rustyeddy/quant/market"
)

// ErrDataUnavailable reports a per-symbol fetch or cache failure. It never
// aborts a batch: the remaining symbols are still returned.
var ErrDataUnavailable = errors.New("data unavailable")

// Fetcher is the external price-fetch collaborator. Implementations may
// fail with network or provider errors; the API treats any failure as a
// per-symbol error. Fetch must honour ctx for timeouts and cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time, freq market.Freq) (*market.Series, error)
}

// Options tunes query post-processing.
type Options struct {
	// SkipPaused drops zero-volume bars (suspended trading days).
	SkipPaused bool
}

// API is the data facade. One instance is shared by all backtest runs;
// the cache handles its own locking.
type API struct {
	cache      *cache.TwoTier
	fetcher    Fetcher
	skipPaused bool
	log        *logrus.Entry
}

func New(c *cache.TwoTier, f Fetcher, opts Options) *API {
	return &API{
		cache:      c,
		fetcher:    f,
		skipPaused: opts.SkipPaused,
		log:        logrus.WithField("component", "dataapi"),
	}
}

// GetPrice resolves every raw identifier to its canonical symbol and
// returns a series per symbol. Failures are per-symbol: the returned
// error map carries them while successfully resolved symbols are still
// returned. Repeating an identical query is served from the cache.
//
// A zero end time defaults to now; a zero start time defaults to one
// year before end.
func (a *API) GetPrice(ctx context.Context, raws []string, start, end time.Time, freq market.Freq) (map[string]*market.Series, map[string]error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(-1, 0, 0)
	}
	if freq == "" {
		freq = market.Daily
	}

	result := make(map[string]*market.Series)
	errs := make(map[string]error)

	for _, raw := range raws {
		symbol, err := market.Normalize(raw)
		if err != nil {
			errs[raw] = err
			continue
		}
		if _, ok := result[symbol]; ok {
			continue // duplicate spelling of an already-resolved symbol
		}

		s, err := a.resolve(ctx, symbol, start, end, freq)
		if err != nil {
			a.log.WithField("symbol", symbol).WithError(err).Warn("query failed")
			errs[symbol] = err
			continue
		}
		result[symbol] = s
	}

	return result, errs
}

func (a *API) resolve(ctx context.Context, symbol string, start, end time.Time, freq market.Freq) (*market.Series, error) {
	key := cache.NewKey(symbol, freq, start, end)

	// Serialize populators per key; concurrent runs racing on the same
	// miss fetch once.
	release := a.cache.Acquire(key)
	defer release()

	if s, err := a.cache.Get(key); err == nil {
		return a.post(s), nil
	}

	if a.fetcher == nil {
		return nil, fmt.Errorf("%w: %s: no fetcher configured", ErrDataUnavailable, key)
	}

	s, err := a.fetcher.Fetch(ctx, symbol, start, end, freq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, key, err)
	}
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: source returned no bars", ErrDataUnavailable, key)
	}

	if err := a.cache.Put(key, s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, key, err)
	}

	return a.post(s), nil
}

// Close releases the cache's persistent tier.
func (a *API) Close() error {
	return a.cache.Close()
}

// post applies query post-processing without mutating cached data.
func (a *API) post(s *market.Series) *market.Series {
	if !a.skipPaused {
		return s
	}
	bars := make([]market.Bar, 0, len(s.Bars))
	for _, b := range s.Bars {
		if b.Volume > 0 {
			bars = append(bars, b)
		}
	}
	return &market.Series{Symbol: s.Symbol, Freq: s.Freq, Bars: bars}
}
