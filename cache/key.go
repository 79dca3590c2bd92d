// Package cache provides the two-tier price series cache: a bounded LRU
// memory tier in front of a durable SQLite tier, both keyed by
// (canonical symbol, frequency, date range).
package cache

import (
	"fmt"
	"time"

	"github.com/rustyeddy/quant/market"
)

// Key identifies one cached series. Symbol must already be canonical
// (see market.Normalize). Start and End are inclusive unix seconds so
// keys stay comparable and usable as map keys.
type Key struct {
	Symbol string
	Freq   market.Freq
	Start  int64
	End    int64
}

func NewKey(symbol string, freq market.Freq, start, end time.Time) Key {
	return Key{
		Symbol: symbol,
		Freq:   freq,
		Start:  start.UTC().Unix(),
		End:    end.UTC().Unix(),
	}
}

func (k Key) StartTime() time.Time { return time.Unix(k.Start, 0).UTC() }
func (k Key) EndTime() time.Time   { return time.Unix(k.End, 0).UTC() }

// Contains reports whether k fully covers other for the same
// (symbol, freq). A contained request can be served by slicing.
func (k Key) Contains(other Key) bool {
	return k.Symbol == other.Symbol &&
		k.Freq == other.Freq &&
		k.Start <= other.Start &&
		k.End >= other.End
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s..%s",
		k.Symbol, k.Freq,
		k.StartTime().Format("2006-01-02"),
		k.EndTime().Format("2006-01-02"))
}
