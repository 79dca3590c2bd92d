package strategies

import "github.com/rustyeddy/quant/market"

// Noop never signals. Useful as a baseline and in tests.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Signals(*market.Series) ([]Signal, error) { return nil, nil }

func init() {
	Register("noop", func(Params) (Strategy, error) { return Noop{}, nil })
	Register("none", func(Params) (Strategy, error) { return Noop{}, nil })
}
