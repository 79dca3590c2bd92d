package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/strategies"
)

func TestSweepRunsAllStrategies(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.1
	}
	api := apiFor(map[string]*market.Series{
		"600000.SH": market.NewSeries("600000.SH", market.Daily, flatBars(closes...)),
	})

	maCross, err := strategies.New("ma-cross", nil)
	require.NoError(t, err)

	strats := []strategies.Strategy{
		maCross,
		strategies.Noop{},
		script{signals: []strategies.Signal{
			{Symbol: "600000.SH", Time: day(2), Action: strategies.Buy, Qty: 100},
		}},
	}

	results := Sweep(context.Background(), api, zeroCostConfig(), strats, []string{"600000"}, day(1), day(60))
	require.Len(t, results, 3)

	for _, r := range results {
		assert.NoError(t, r.Err, r.Strategy)
		require.NotNil(t, r.Result, r.Strategy)
	}

	// Order follows the input strategies, not completion order.
	assert.Equal(t, "ma-cross", results[0].Strategy)
	assert.Equal(t, "noop", results[1].Strategy)
	assert.Equal(t, "script", results[2].Strategy)

	assert.Empty(t, results[1].Result.Fills)
	assert.NotEmpty(t, results[2].Result.Fills)
}
