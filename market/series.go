package market

import (
	"sort"
	"time"
)

// Series is an ordered sequence of bars for one (symbol, frequency).
// Bars are sorted ascending by timestamp. Consumers borrow a Series
// read-only; the cache owns cached instances.
type Series struct {
	Symbol string
	Freq   Freq
	Bars   []Bar
}

// NewSeries builds a series, sorting the bars ascending by timestamp.
func NewSeries(symbol string, freq Freq, bars []Bar) *Series {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return &Series{Symbol: symbol, Freq: freq, Bars: sorted}
}

func (s *Series) Len() int { return len(s.Bars) }

// Start returns the timestamp of the first bar, zero if empty.
func (s *Series) Start() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Time
}

// End returns the timestamp of the last bar, zero if empty.
func (s *Series) End() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Time
}

// Slice returns a new series holding the bars with from <= t <= to.
// The underlying bar values are copied by slicing, never mutated.
func (s *Series) Slice(from, to time.Time) *Series {
	lo := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Time.Before(from)
	})
	hi := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Time.After(to)
	})
	if lo > hi {
		lo = hi
	}
	return &Series{Symbol: s.Symbol, Freq: s.Freq, Bars: s.Bars[lo:hi]}
}

// Closes returns the close prices in bar order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// At returns the bar at the given timestamp, if present.
func (s *Series) At(t time.Time) (Bar, bool) {
	i := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Time.Before(t)
	})
	if i < len(s.Bars) && s.Bars[i].Time.Equal(t) {
		return s.Bars[i], true
	}
	return Bar{}, false
}
