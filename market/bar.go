// Package market defines instrument identity, bars and price series for
// the rest of the system.
package market

import "time"

// Freq identifies the bar frequency of a series.
type Freq string

const (
	Daily   Freq = "daily"
	Weekly  Freq = "weekly"
	Monthly Freq = "monthly"
)

// Bar is one OHLCV record for one symbol at one timestamp.
// Bars are immutable once produced.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
