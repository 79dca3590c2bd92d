package cmd

import (
	"context"
	"fmt"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/config"
	"github.com/rustyeddy/quant/dataapi"
	"github.com/rustyeddy/quant/strategies"
)

// applyBacktestFlags overlays the command-line flags on the loaded
// config. Flags win.
func applyBacktestFlags(cfg *config.Config) {
	if len(btSymbols) > 0 {
		cfg.Backtest.Symbols = btSymbols
	}
	if btStrategy != "" {
		cfg.Strategy.Name = btStrategy
	}
	if btStart != "" {
		cfg.Backtest.Start = btStart
	}
	if btEnd != "" {
		cfg.Backtest.End = btEnd
	}
	if btCapital > 0 {
		cfg.Backtest.Engine.InitialCapital = btCapital
	}
}

// runOne wires the data layer, runs one engine and returns the result.
// The API is returned for the caller to close once done with it.
func runOne(ctx context.Context, cfg *config.Config, strat strategies.Strategy) (*backtest.Result, *dataapi.API, error) {
	if len(cfg.Backtest.Symbols) == 0 {
		return nil, nil, fmt.Errorf("no symbols: set backtest.symbols or --symbols")
	}

	start, end, err := cfg.Backtest.Window()
	if err != nil {
		return nil, nil, err
	}

	api, err := buildAPI(cfg)
	if err != nil {
		return nil, nil, err
	}

	eng, err := backtest.New(api, cfg.Backtest.Engine)
	if err != nil {
		return nil, api, fmt.Errorf("engine: %w", err)
	}

	res, err := eng.Run(ctx, strat, cfg.Backtest.Symbols, start, end)
	if err != nil {
		return nil, api, fmt.Errorf("run: %w", err)
	}
	return res, api, nil
}
