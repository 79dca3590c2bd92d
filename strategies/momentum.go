package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/indicators"
	"github.com/rustyeddy/quant/market"
)

// MomentumConfig parameterizes the momentum strategy. Threshold is the
// lookback return in percent that triggers an entry or exit.
type MomentumConfig struct {
	Lookback  int
	Threshold float64
	Unit      float64
}

func MomentumDefaults() MomentumConfig {
	return MomentumConfig{Lookback: 60, Threshold: 5.0, Unit: 100}
}

func (c MomentumConfig) Validate() error {
	if c.Lookback <= 0 {
		return fmt.Errorf("%w: lookback must be positive, got %d", ErrInvalidParameter, c.Lookback)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative, got %v", ErrInvalidParameter, c.Threshold)
	}
	if c.Unit < 0 {
		return fmt.Errorf("%w: unit must not be negative, got %v", ErrInvalidParameter, c.Unit)
	}
	return nil
}

// MomentumStrategy buys when the lookback return rises through the
// positive threshold and sells when it falls through the negative one.
type MomentumStrategy struct {
	cfg MomentumConfig
}

func NewMomentum(cfg MomentumConfig) (*MomentumStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MomentumStrategy{cfg: cfg}, nil
}

func (m *MomentumStrategy) Name() string { return "momentum" }

func (m *MomentumStrategy) Signals(s *market.Series) ([]Signal, error) {
	mom := indicators.Momentum(s.Closes(), m.cfg.Lookback)

	var signals []Signal
	prev := math.NaN()

	for i, b := range s.Bars {
		cur := mom[i]
		if math.IsNaN(cur) {
			continue
		}

		switch {
		case cur > m.cfg.Threshold && (math.IsNaN(prev) || prev <= m.cfg.Threshold):
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: b.Time, Action: Buy, Qty: m.cfg.Unit,
			})
		case cur < -m.cfg.Threshold && (math.IsNaN(prev) || prev >= -m.cfg.Threshold):
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: b.Time, Action: Sell, Qty: m.cfg.Unit,
			})
		}
		prev = cur
	}

	return signals, nil
}

func init() {
	Register("momentum", func(p Params) (Strategy, error) {
		def := MomentumDefaults()
		return NewMomentum(MomentumConfig{
			Lookback:  p.Int("lookback", def.Lookback),
			Threshold: p.Float("threshold", def.Threshold),
			Unit:      p.Float("unit", def.Unit),
		})
	})
}
