// Package strategies defines the trading strategy contract and the
// built-in strategy library.
package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/quant/market"
)

// ErrInvalidParameter is returned when a strategy configuration is out of
// range or missing required values. It always surfaces before a run starts.
var ErrInvalidParameter = errors.New("invalid parameter")

// Action is the trading intent of a signal.
type Action int8

const (
	Hold Action = 0
	Buy  Action = +1
	Sell Action = -1
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Signal is a strategy's trading intent for one symbol at one bar
// timestamp, prior to sizing. Qty is a target share count; zero lets the
// engine's sizing policy decide.
type Signal struct {
	Symbol string
	Time   time.Time
	Action Action
	Qty    float64
}

// Strategy is the contract all trading strategies implement.
//
// Signals must be pure with respect to its input: the same series always
// yields the same signal sequence, and the signal at bar i may depend
// only on bars [0, i], never on later bars, wall-clock time or I/O.
// Parameters are fixed at construction.
type Strategy interface {
	Name() string
	Signals(s *market.Series) ([]Signal, error)
}

// Params carries named numeric strategy parameters, as parsed from
// configuration.
type Params map[string]float64

// Float returns the parameter value, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the parameter value truncated to int, or def when absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// Factory builds a strategy from parameters, validating them.
type Factory func(Params) (Strategy, error)

var registry = make(map[string]Factory)

func Register(name string, f Factory) {
	registry[name] = f
}

// New constructs a registered strategy by name. Parameter validation
// errors wrap ErrInvalidParameter.
func New(name string, p Params) (Strategy, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)",
			name, strings.Join(Names(), ", "))
	}
	return f(p)
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
