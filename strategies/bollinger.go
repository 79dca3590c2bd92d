package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/quant/indicators"
	"github.com/rustyeddy/quant/market"
)

// BollingerConfig parameterizes the band-breakout strategy.
type BollingerConfig struct {
	Window int
	NumStd float64
	Unit   float64
}

func BollingerDefaults() BollingerConfig {
	return BollingerConfig{Window: 20, NumStd: 2.0, Unit: 100}
}

func (c BollingerConfig) Validate() error {
	if c.Window <= 1 {
		return fmt.Errorf("%w: window must exceed 1, got %d", ErrInvalidParameter, c.Window)
	}
	if c.NumStd <= 0 {
		return fmt.Errorf("%w: num_std must be positive, got %v", ErrInvalidParameter, c.NumStd)
	}
	if c.Unit < 0 {
		return fmt.Errorf("%w: unit must not be negative, got %v", ErrInvalidParameter, c.Unit)
	}
	return nil
}

// BollingerStrategy buys when the close breaks below the lower band and
// sells when it breaks above the upper band, firing on the breakout bar.
type BollingerStrategy struct {
	cfg BollingerConfig
}

func NewBollinger(cfg BollingerConfig) (*BollingerStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BollingerStrategy{cfg: cfg}, nil
}

func (b *BollingerStrategy) Name() string { return "bollinger" }

func (b *BollingerStrategy) Signals(s *market.Series) ([]Signal, error) {
	closes := s.Closes()
	_, upper, lower := indicators.Bollinger(closes, b.cfg.Window, b.cfg.NumStd)

	var signals []Signal
	wasBelow, wasAbove := false, false

	for i, bar := range s.Bars {
		if math.IsNaN(upper[i]) {
			continue
		}

		below := bar.Close < lower[i]
		above := bar.Close > upper[i]

		switch {
		case below && !wasBelow:
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: bar.Time, Action: Buy, Qty: b.cfg.Unit,
			})
		case above && !wasAbove:
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: bar.Time, Action: Sell, Qty: b.cfg.Unit,
			})
		}
		wasBelow, wasAbove = below, above
	}

	return signals, nil
}

func init() {
	Register("bollinger", func(p Params) (Strategy, error) {
		def := BollingerDefaults()
		return NewBollinger(BollingerConfig{
			Window: p.Int("window", def.Window),
			NumStd: p.Float("num_std", def.NumStd),
			Unit:   p.Float("unit", def.Unit),
		})
	})
}
