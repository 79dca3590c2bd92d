package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSISignalsOnThresholdCross(t *testing.T) {
	t.Parallel()

	// Steady, then a hard sell-off driving RSI to 0, then a rally
	// driving it back to 100.
	closes := []float64{
		10, 10.1, 10, 10.1, 10, 10.1, 10,
		9.5, 9, 8.5, 8, 7.5, 7, 6.5,
		7.5, 8.5, 9.5, 10.5, 11.5, 12.5, 13.5,
	}
	s := seriesFromCloses(closes...)

	strat, err := NewRSI(RSIConfig{Period: 5, Oversold: 30, Overbought: 70, Unit: 100})
	assert.NoError(t, err)

	signals, err := strat.Signals(s)
	assert.NoError(t, err)
	assert.NotEmpty(t, signals)

	// First signal must be the oversold BUY, and a SELL must follow the
	// rally. Consecutive bars beyond a threshold do not re-fire.
	assert.Equal(t, Buy, signals[0].Action)

	var sells int
	for _, sig := range signals {
		if sig.Action == Sell {
			sells++
		}
	}
	assert.Equal(t, 1, sells)
}

func TestRSIFlatSeriesNoSignals(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10
	}
	s := seriesFromCloses(closes...)

	strat, err := NewRSI(RSIDefaults())
	assert.NoError(t, err)

	signals, err := strat.Signals(s)
	assert.NoError(t, err)

	// Flat closes: zero losses peg RSI at 100 by convention, which means
	// a single overbought SELL at warmup and nothing else.
	for i := 1; i < len(signals); i++ {
		assert.NotEqual(t, signals[i-1], signals[i])
	}
	assert.LessOrEqual(t, len(signals), 1)
}
