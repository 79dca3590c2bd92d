package strategies

import (
	"fmt"

	"github.com/rustyeddy/quant/indicators"
	"github.com/rustyeddy/quant/market"
)

// MACrossConfig parameterizes the moving-average crossover strategy.
type MACrossConfig struct {
	ShortWindow int
	LongWindow  int
	Unit        float64 // shares per signal
}

func MACrossDefaults() MACrossConfig {
	return MACrossConfig{ShortWindow: 5, LongWindow: 20, Unit: 100}
}

func (c MACrossConfig) Validate() error {
	if c.ShortWindow <= 0 {
		return fmt.Errorf("%w: short_window must be positive, got %d", ErrInvalidParameter, c.ShortWindow)
	}
	if c.LongWindow <= c.ShortWindow {
		return fmt.Errorf("%w: long_window (%d) must exceed short_window (%d)",
			ErrInvalidParameter, c.LongWindow, c.ShortWindow)
	}
	if c.Unit < 0 {
		return fmt.Errorf("%w: unit must not be negative, got %v", ErrInvalidParameter, c.Unit)
	}
	return nil
}

// MACross buys when the short SMA crosses above the long SMA and sells
// on the opposite cross. The flat state before warmup counts as zero
// separation, so a series already separated at warmup signals once at
// the first bar where both averages exist.
type MACross struct {
	cfg MACrossConfig
}

func NewMACross(cfg MACrossConfig) (*MACross, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MACross{cfg: cfg}, nil
}

func (m *MACross) Name() string { return "ma-cross" }

func (m *MACross) Signals(s *market.Series) ([]Signal, error) {
	short := indicators.NewSMA(m.cfg.ShortWindow)
	long := indicators.NewSMA(m.cfg.LongWindow)

	var signals []Signal
	lastDiff := 0.0

	for _, b := range s.Bars {
		short.Update(b)
		long.Update(b)
		if !short.Ready() || !long.Ready() {
			continue
		}

		diff := short.Value() - long.Value()

		switch {
		case diff > 0 && lastDiff <= 0:
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: b.Time, Action: Buy, Qty: m.cfg.Unit,
			})
		case diff < 0 && lastDiff >= 0:
			signals = append(signals, Signal{
				Symbol: s.Symbol, Time: b.Time, Action: Sell, Qty: m.cfg.Unit,
			})
		}
		lastDiff = diff
	}

	return signals, nil
}

func init() {
	Register("ma-cross", func(p Params) (Strategy, error) {
		def := MACrossDefaults()
		return NewMACross(MACrossConfig{
			ShortWindow: p.Int("short_window", def.ShortWindow),
			LongWindow:  p.Int("long_window", def.LongWindow),
			Unit:        p.Float("unit", def.Unit),
		})
	})
}
