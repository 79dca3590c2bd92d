package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/indicators"
	"github.com/rustyeddy/quant/market"
)

// RSIConfig parameterizes the RSI threshold strategy.
type RSIConfig struct {
	Period     int
	Oversold   float64
	Overbought float64
	Unit       float64
}

func RSIDefaults() RSIConfig {
	return RSIConfig{Period: 14, Oversold: 30, Overbought: 70, Unit: 100}
}

func (c RSIConfig) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %d", ErrInvalidParameter, c.Period)
	}
	if c.Oversold < 0 || c.Overbought > 100 || c.Oversold >= c.Overbought {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= oversold < overbought <= 100, got %v/%v",
			ErrInvalidParameter, c.Oversold, c.Overbought)
	}
	if c.Unit < 0 {
		return fmt.Errorf("%w: unit must not be negative, got %v", ErrInvalidParameter, c.Unit)
	}
	return nil
}

// RSIStrategy buys when RSI drops below the oversold threshold and sells
// when it rises above the overbought threshold. Signals fire on the
// crossing bar, not on every bar beyond the threshold.
type RSIStrategy struct {
	cfg RSIConfig
}

func NewRSI(cfg RSIConfig) (*RSIStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RSIStrategy{cfg: cfg}, nil
}

func (r *RSIStrategy) Name() string { return "rsi" }

func (r *RSIStrategy) Signals(s *market.Series) ([]Signal, error) {
	rsi := indicators.RSI(s.Closes(), r.cfg.Period)

	var signals []Signal
	prev := math.NaN()

	for i, b := range s.Bars {
		cur := rsi[i]
		if math.IsNaN(cur) {
			continue
		}

		switch {
		case cur < r.cfg.Oversold && (math.IsNaN(prev) || prev >= r.cfg.Oversold):
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: b.Time, Action: Buy, Qty: r.cfg.Unit,
			})
		case cur > r.cfg.Overbought && (math.IsNaN(prev) || prev <= r.cfg.Overbought):
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: b.Time, Action: Sell, Qty: r.cfg.Unit,
			})
		}
		prev = cur
	}

	return signals, nil
}

func init() {
	Register("rsi", func(p Params) (Strategy, error) {
		def := RSIDefaults()
		return NewRSI(RSIConfig{
			Period:     p.Int("period", def.Period),
			Oversold:   p.Float("oversold", def.Oversold),
			Overbought: p.Float("overbought", def.Overbought),
			Unit:       p.Float("unit", def.Unit),
		})
	})
}
