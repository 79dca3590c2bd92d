package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestNewSeriesSortsBars(t *testing.T) {
	t.Parallel()

	s := NewSeries("000001.SZ", Daily, []Bar{
		{Time: day(3), Close: 3},
		{Time: day(1), Close: 1},
		{Time: day(2), Close: 2},
	})

	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
	assert.True(t, s.Start().Equal(day(1)))
	assert.True(t, s.End().Equal(day(3)))
}

func TestSeriesSlice(t *testing.T) {
	t.Parallel()

	var bars []Bar
	for d := 1; d <= 10; d++ {
		bars = append(bars, Bar{Time: day(d), Close: float64(d)})
	}
	s := NewSeries("000001.SZ", Daily, bars)

	sub := s.Slice(day(3), day(7))
	assert.Equal(t, 5, sub.Len())
	assert.True(t, sub.Start().Equal(day(3)))
	assert.True(t, sub.End().Equal(day(7)))

	empty := s.Slice(day(11), day(12))
	assert.Equal(t, 0, empty.Len())
}

func TestSeriesAt(t *testing.T) {
	t.Parallel()

	s := NewSeries("600000.SH", Daily, []Bar{
		{Time: day(1), Close: 1},
		{Time: day(3), Close: 3},
	})

	b, ok := s.At(day(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, b.Close)

	_, ok = s.At(day(2))
	assert.False(t, ok)
}
