package indicators

import (
	"fmt"

	"github.com/rustyeddy/quant/market"
)

// SimpleMA is a streaming Simple Moving Average over bar closes.
type SimpleMA struct {
	period int
	window []float64
}

func NewSMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int { return m.period }

func (m *SimpleMA) Reset() { m.window = m.window[:0] }

func (m *SimpleMA) Update(b market.Bar) {
	m.window = append(m.window, b.Close)
	if len(m.window) > m.period {
		m.window = m.window[1:]
	}
}

func (m *SimpleMA) Ready() bool { return len(m.window) >= m.period }

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	sum := 0.0
	for _, v := range m.window {
		sum += v
	}
	return sum / float64(m.period)
}

// ExponentialMA is a streaming EMA over bar closes, seeded with the SMA
// of the first period bars.
type ExponentialMA struct {
	period int
	seen   int
	seed   float64
	value  float64
}

func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{period: period}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int { return e.period }

func (e *ExponentialMA) Reset() {
	e.seen = 0
	e.seed = 0
	e.value = 0
}

func (e *ExponentialMA) Update(b market.Bar) {
	e.seen++
	if e.seen <= e.period {
		e.seed += b.Close
		if e.seen == e.period {
			e.value = e.seed / float64(e.period)
		}
		return
	}
	multiplier := 2.0 / float64(e.period+1)
	e.value = (b.Close-e.value)*multiplier + e.value
}

func (e *ExponentialMA) Ready() bool { return e.seen >= e.period }

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.value
}
