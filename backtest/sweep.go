package backtest

import (
	"context"
	"sync"
	"time"

	"github.com/rustyeddy/quant/dataapi"
	"github.com/rustyeddy/quant/strategies"
)

// SweepResult pairs one strategy with its run outcome.
type SweepResult struct {
	Strategy string
	Result   *Result
	Err      error
}

// Sweep runs every strategy over the same symbols and window, one engine
// per strategy, concurrently. The shared data API serves all runs from
// its cache, so the price data is fetched once. Results are returned in
// strategy order.
func Sweep(ctx context.Context, data *dataapi.API, cfg Config, strats []strategies.Strategy, symbols []string, start, end time.Time) []SweepResult {
	out := make([]SweepResult, len(strats))

	var wg sync.WaitGroup
	for i, strat := range strats {
		wg.Add(1)
		go func(i int, strat strategies.Strategy) {
			defer wg.Done()

			out[i].Strategy = strat.Name()
			eng, err := New(data, cfg)
			if err != nil {
				out[i].Err = err
				return
			}
			out[i].Result, out[i].Err = eng.Run(ctx, strat, symbols, start, end)
		}(i, strat)
	}
	wg.Wait()

	return out
}
