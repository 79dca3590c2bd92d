package strategies

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryNew(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"ma-cross", "rsi", "bollinger", "momentum", "noop"} {
		strat, err := New(name, nil)
		assert.NoError(t, err, name)
		assert.NotNil(t, strat, name)
	}
}

func TestRegistryUnknown(t *testing.T) {
	t.Parallel()

	_, err := New("does-not-exist", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestRegistryValidatesParams(t *testing.T) {
	t.Parallel()

	// short_window >= long_window is invalid for a crossover strategy.
	_, err := New("ma-cross", Params{"short_window": 20, "long_window": 5})
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = New("rsi", Params{"oversold": 80, "overbought": 20})
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = New("bollinger", Params{"num_std": -1})
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = New("momentum", Params{"lookback": -5})
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestParamsDefaults(t *testing.T) {
	t.Parallel()

	p := Params{"short_window": 7}
	assert.Equal(t, 7, p.Int("short_window", 5))
	assert.Equal(t, 20, p.Int("long_window", 20))
	assert.Equal(t, 100.0, p.Float("unit", 100))
}

func TestNoopNeverSignals(t *testing.T) {
	t.Parallel()

	s := seriesFromCloses(1, 2, 3, 4, 5)
	signals, err := Noop{}.Signals(s)
	assert.NoError(t, err)
	assert.Empty(t, signals)
}
