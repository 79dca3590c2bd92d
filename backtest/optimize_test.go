package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/strategies"
)

func TestGridCombinations(t *testing.T) {
	t.Parallel()

	grid := Grid{
		"short_window": {3, 5},
		"long_window":  {10, 20, 30},
	}
	combos := grid.Combinations()
	require.Len(t, combos, 6)

	// Keys expand in sorted order, so long_window is the outer loop.
	assert.Equal(t, strategies.Params{"long_window": 10, "short_window": 3}, combos[0])
	assert.Equal(t, strategies.Params{"long_window": 10, "short_window": 5}, combos[1])
	assert.Equal(t, strategies.Params{"long_window": 30, "short_window": 5}, combos[5])

	// Re-expansion is deterministic.
	assert.Equal(t, combos, grid.Combinations())
}

func TestGridSingleParameter(t *testing.T) {
	t.Parallel()

	combos := Grid{"period": {7, 14, 21}}.Combinations()
	require.Len(t, combos, 3)
	assert.Equal(t, 7.0, combos[0]["period"])
	assert.Equal(t, 21.0, combos[2]["period"])
}

// trendSeries builds a long rising series with enough bars for the
// slowest moving average under test to warm up.
func trendSeries(n int) *market.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 10 + 0.2*float64(i)
	}
	return market.NewSeries("600000.SH", market.Daily, flatBars(closes...))
}

func TestOptimizeMACrossGrid(t *testing.T) {
	t.Parallel()

	api := apiFor(map[string]*market.Series{"600000.SH": trendSeries(60)})

	grid := Grid{
		"short_window": {3, 5},
		"long_window":  {10, 20},
	}

	opt, err := Optimize(context.Background(), api, zeroCostConfig(),
		"ma-cross", grid, MetricTotalReturn,
		[]string{"600000"}, day(1), day(60))
	require.NoError(t, err)

	require.Len(t, opt.Runs, 4)
	require.NotNil(t, opt.Best)
	assert.NoError(t, opt.Best.Err)

	// The best run's metric is at least every other valid run's.
	best := opt.Best.Result.Report.TotalReturn
	for _, run := range opt.Runs {
		if run.Err != nil {
			continue
		}
		assert.GreaterOrEqual(t, best, run.Result.Report.TotalReturn)
	}
}

func TestOptimizeInvalidCombosSkipped(t *testing.T) {
	t.Parallel()

	api := apiFor(map[string]*market.Series{"600000.SH": trendSeries(60)})

	// short_window 15 against long_window 10 is rejected at construction;
	// the grid search records the error and ranks the rest.
	grid := Grid{
		"short_window": {3, 15},
		"long_window":  {10},
	}

	opt, err := Optimize(context.Background(), api, zeroCostConfig(),
		"ma-cross", grid, MetricTotalReturn,
		[]string{"600000"}, day(1), day(60))
	require.NoError(t, err)

	require.Len(t, opt.Runs, 2)

	var failed int
	for _, run := range opt.Runs {
		if run.Err != nil {
			failed++
			assert.ErrorIs(t, run.Err, strategies.ErrInvalidParameter)
		}
	}
	assert.Equal(t, 1, failed)
	require.NotNil(t, opt.Best)
	assert.Equal(t, 3, opt.Best.Params.Int("short_window", 0))
}

func TestOptimizeAllCombosInvalid(t *testing.T) {
	t.Parallel()

	api := apiFor(map[string]*market.Series{"600000.SH": trendSeries(60)})

	grid := Grid{
		"short_window": {20, 30},
		"long_window":  {10},
	}

	_, err := Optimize(context.Background(), api, zeroCostConfig(),
		"ma-cross", grid, MetricSharpe,
		[]string{"600000"}, day(1), day(60))
	assert.True(t, errors.Is(err, ErrNoValidRuns))
}

func TestOptimizeMaxDrawdownRanksAscending(t *testing.T) {
	t.Parallel()

	api := apiFor(map[string]*market.Series{"600000.SH": trendSeries(60)})

	opt, err := Optimize(context.Background(), api, zeroCostConfig(),
		"ma-cross", Grid{"short_window": {3, 5}, "long_window": {10, 20}},
		MetricMaxDrawdown, []string{"600000"}, day(1), day(60))
	require.NoError(t, err)

	best := opt.Best.Result.Report.MaxDrawdown
	for _, run := range opt.Runs {
		if run.Err != nil {
			continue
		}
		assert.LessOrEqual(t, best, run.Result.Report.MaxDrawdown)
	}
}

func TestOptimizeRejectsBadInput(t *testing.T) {
	t.Parallel()

	api := apiFor(map[string]*market.Series{"600000.SH": trendSeries(10)})

	_, err := Optimize(context.Background(), api, zeroCostConfig(),
		"ma-cross", Grid{}, MetricSharpe, []string{"600000"}, day(1), day(10))
	assert.Error(t, err)

	_, err = Optimize(context.Background(), api, zeroCostConfig(),
		"ma-cross", Grid{"short_window": {3}}, Metric("calmar"),
		[]string{"600000"}, day(1), day(10))
	assert.Error(t, err)
}
