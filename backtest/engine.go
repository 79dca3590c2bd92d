// Package backtest replays historical bars through a strategy and an
// execution simulator, producing an equity curve, a trade log and a
// performance report.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/quant/dataapi"
	"github.com/rustyeddy/quant/market"
	"github.com/rustyeddy/quant/perf"
	"github.com/rustyeddy/quant/strategies"
)

// ErrInsufficientData is returned when no symbol in a run yields any
// usable price data.
var ErrInsufficientData = errors.New("insufficient data")

// State is the lifecycle of an engine. An engine runs exactly once.
type State int32

const (
	Configured State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SizingMode selects how a signal becomes a share quantity.
type SizingMode string

const (
	// SizeSignal uses the quantity the signal carries, falling back to
	// Shares when the signal leaves it zero.
	SizeSignal SizingMode = "signal"
	// SizeFixed always trades Shares per signal.
	SizeFixed SizingMode = "fixed"
	// SizeFraction spends Fraction of current equity per buy.
	SizeFraction SizingMode = "fraction"
)

// FundsPolicy decides what happens when a buy exceeds available cash.
type FundsPolicy string

const (
	// FundsClip shrinks the order to the largest affordable quantity.
	FundsClip FundsPolicy = "clip"
	// FundsReject drops the order and records a warning.
	FundsReject FundsPolicy = "reject"
)

// FillTiming selects the price a signal fills at.
type FillTiming string

const (
	FillClose    FillTiming = "close"
	FillNextOpen FillTiming = "next-open"
)

// SizingConfig tunes order sizing.
type SizingConfig struct {
	Mode     SizingMode `yaml:"mode" json:"mode"`
	Shares   float64    `yaml:"shares" json:"shares"`
	Fraction float64    `yaml:"fraction" json:"fraction"`
}

// CostConfig models transaction costs. Commission and slippage are
// fractions of notional; FlatFee is charged per fill.
type CostConfig struct {
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate"`
	Slippage       float64 `yaml:"slippage" json:"slippage"`
	FlatFee        float64 `yaml:"flat_fee" json:"flat_fee"`
}

// Config is the full engine configuration for one run.
type Config struct {
	InitialCapital float64      `yaml:"initial_capital" json:"initial_capital"`
	Freq           market.Freq  `yaml:"freq" json:"freq"`
	Sizing         SizingConfig `yaml:"sizing" json:"sizing"`
	Costs          CostConfig   `yaml:"costs" json:"costs"`
	FillAt         FillTiming   `yaml:"fill_at" json:"fill_at"`
	AllowShort     bool         `yaml:"allow_short" json:"allow_short"`
	Funds          FundsPolicy  `yaml:"funds" json:"funds"`
	// Benchmark is the index the report's alpha/beta are computed
	// against; empty disables benchmark-relative metrics.
	Benchmark string      `yaml:"benchmark,omitempty" json:"benchmark,omitempty"`
	Analyzer  perf.Config `yaml:"analyzer" json:"analyzer"`
}

func DefaultConfig() Config {
	return Config{
		InitialCapital: 1_000_000,
		Freq:           market.Daily,
		Sizing:         SizingConfig{Mode: SizeSignal, Shares: 100},
		Costs:          CostConfig{CommissionRate: 0.0003, Slippage: 0.0001},
		FillAt:         FillClose,
		Funds:          FundsClip,
		Benchmark:      "000300.SH",
		Analyzer:       perf.DefaultConfig(),
	}
}

func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %v", c.InitialCapital)
	}
	if c.Costs.CommissionRate < 0 || c.Costs.Slippage < 0 || c.Costs.FlatFee < 0 {
		return errors.New("costs must not be negative")
	}
	switch c.Sizing.Mode {
	case SizeSignal, SizeFixed:
		if c.Sizing.Shares <= 0 {
			return fmt.Errorf("sizing shares must be positive, got %v", c.Sizing.Shares)
		}
	case SizeFraction:
		if c.Sizing.Fraction <= 0 || c.Sizing.Fraction > 1 {
			return fmt.Errorf("sizing fraction must be in (0, 1], got %v", c.Sizing.Fraction)
		}
	default:
		return fmt.Errorf("unknown sizing mode %q", c.Sizing.Mode)
	}
	switch c.FillAt {
	case FillClose, FillNextOpen:
	default:
		return fmt.Errorf("unknown fill timing %q", c.FillAt)
	}
	switch c.Funds {
	case FundsClip, FundsReject:
	default:
		return fmt.Errorf("unknown funds policy %q", c.Funds)
	}
	return nil
}

// Engine runs one backtest. It is single-use: Run transitions the state
// Configured -> Running -> Completed or Failed and refuses to run again.
type Engine struct {
	data  *dataapi.API
	cfg   Config
	state atomic.Int32
	log   *logrus.Entry
}

func New(data *dataapi.API, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		data: data,
		cfg:  cfg,
		log:  logrus.WithField("component", "backtest"),
	}, nil
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) fail() {
	e.state.Store(int32(Failed))
}

// pendingOrder is a next-open fill queued against a symbol's next bar.
type pendingOrder struct {
	signal strategies.Signal
}

// Run replays the strategy over the symbols' bars between start and end.
// All symbols are advanced over the union of their bar timestamps in
// ascending order, so multi-symbol runs are deterministic. Per-symbol
// data failures are recorded as warnings; the run fails only when no
// symbol has data or the strategy itself errors.
func (e *Engine) Run(ctx context.Context, strat strategies.Strategy, symbols []string, start, end time.Time) (*Result, error) {
	if !e.state.CompareAndSwap(int32(Configured), int32(Running)) {
		return nil, fmt.Errorf("engine already %s", e.State())
	}

	res := newResult(strat.Name(), symbols, start, end, e.cfg)

	series, errs := e.data.GetPrice(ctx, symbols, start, end, e.cfg.Freq)
	for sym, err := range errs {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", sym, err))
	}
	if len(series) == 0 {
		e.fail()
		return nil, fmt.Errorf("%w: no symbol returned bars", ErrInsufficientData)
	}

	// Canonical symbol order for deterministic tie-breaks.
	syms := make([]string, 0, len(series))
	for sym := range series {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	// Full signal sequences up front, grouped per symbol by timestamp.
	signalsAt := make(map[string]map[int64][]strategies.Signal, len(syms))
	for _, sym := range syms {
		sigs, err := strat.Signals(series[sym])
		if err != nil {
			e.fail()
			return nil, fmt.Errorf("strategy %s on %s: %w", strat.Name(), sym, err)
		}
		byTime := make(map[int64][]strategies.Signal)
		for _, sig := range sigs {
			if sig.Action == strategies.Hold {
				continue
			}
			sig.Symbol = sym
			ts := sig.Time.Unix()
			byTime[ts] = append(byTime[ts], sig)
		}
		signalsAt[sym] = byTime
	}

	timeline := unionTimeline(series, syms)

	port := NewPortfolio(e.cfg.InitialCapital)
	lastClose := make(map[string]float64, len(syms))
	pending := make(map[string][]pendingOrder, len(syms))

	e.log.WithFields(logrus.Fields{
		"run":      res.RunID,
		"strategy": strat.Name(),
		"symbols":  len(syms),
		"bars":     len(timeline),
	}).Info("run started")

	for _, ts := range timeline {
		select {
		case <-ctx.Done():
			e.fail()
			return nil, ctx.Err()
		default:
		}

		at := time.Unix(ts, 0).UTC()

		for _, sym := range syms {
			bar, ok := series[sym].At(at)
			if !ok {
				continue
			}

			// Queued next-open orders fill before anything else on
			// this bar.
			for _, po := range pending[sym] {
				e.execute(res, port, po.signal, bar.Open, at)
			}
			pending[sym] = pending[sym][:0]

			lastClose[sym] = bar.Close

			for _, sig := range signalsAt[sym][ts] {
				switch e.cfg.FillAt {
				case FillNextOpen:
					pending[sym] = append(pending[sym], pendingOrder{signal: sig})
				default:
					e.execute(res, port, sig, bar.Close, at)
				}
			}
		}

		res.Curve = append(res.Curve, perf.EquityPoint{
			Time:   at,
			Equity: port.Equity(lastClose),
			Cash:   port.Cash,
		})
	}

	res.finish(port, lastClose)
	if e.cfg.Benchmark != "" {
		if closes := e.benchmarkCloses(ctx, res, start, end); closes != nil {
			perf.Benchmark(&res.Report, res.Curve, closes, e.cfg.Analyzer)
		}
	}
	e.state.Store(int32(Completed))

	e.log.WithFields(logrus.Fields{
		"run":    res.RunID,
		"equity": res.FinalEquity,
		"trades": res.Report.ClosedTrades,
	}).Info("run completed")

	return res, nil
}

// benchmarkCloses fetches the benchmark index and aligns its closes to
// the equity curve, carrying the previous close over bars the benchmark
// skipped. An unavailable benchmark is a warning, never a run failure.
func (e *Engine) benchmarkCloses(ctx context.Context, res *Result, start, end time.Time) []float64 {
	series, errs := e.data.GetPrice(ctx, []string{e.cfg.Benchmark}, start, end, e.cfg.Freq)
	for _, err := range errs {
		res.warnf("benchmark %s: %v", e.cfg.Benchmark, err)
	}
	var bench *market.Series
	for _, s := range series {
		bench = s
	}
	if bench == nil {
		return nil
	}

	closes := make([]float64, 0, len(res.Curve))
	last := 0.0
	for _, p := range res.Curve {
		if bar, ok := bench.At(p.Time); ok {
			last = bar.Close
		}
		if last == 0 {
			res.warnf("benchmark %s: no bar at or before %s",
				e.cfg.Benchmark, p.Time.Format("2006-01-02"))
			return nil
		}
		closes = append(closes, last)
	}
	return closes
}

// execute sizes, prices and applies one signal, recording the fill and
// any closed trades.
func (e *Engine) execute(res *Result, port *Portfolio, sig strategies.Signal, price float64, at time.Time) {
	if price <= 0 {
		res.warnf("%s %s at %s: non-positive price", sig.Action, sig.Symbol, at.Format("2006-01-02"))
		return
	}

	fillPrice := price
	if sig.Action == strategies.Buy {
		fillPrice *= 1 + e.cfg.Costs.Slippage
	} else {
		fillPrice *= 1 - e.cfg.Costs.Slippage
	}

	qty := e.size(port, sig, fillPrice)

	if sig.Action == strategies.Buy {
		qty = e.affordable(res, port, sig, fillPrice, qty, at)
	} else if !e.cfg.AllowShort {
		// Never go below flat: clip the sell to the held quantity.
		held := port.Positions[sig.Symbol].Qty
		if qty > held {
			qty = held
		}
	}
	qty = math.Floor(qty)
	if qty <= 0 {
		return
	}

	fee := qty*fillPrice*e.cfg.Costs.CommissionRate + e.cfg.Costs.FlatFee

	var closed []perf.Trade
	if sig.Action == strategies.Buy {
		closed = port.Buy(sig.Symbol, qty, fillPrice, fee, at)
	} else {
		closed = port.Sell(sig.Symbol, qty, fillPrice, fee, at)
	}

	res.Trades = append(res.Trades, closed...)
	res.Fills = append(res.Fills, Fill{
		Symbol: sig.Symbol,
		Time:   at,
		Action: sig.Action,
		Qty:    qty,
		Price:  fillPrice,
		Fee:    fee,
	})
}

func (e *Engine) size(port *Portfolio, sig strategies.Signal, price float64) float64 {
	switch e.cfg.Sizing.Mode {
	case SizeFixed:
		return e.cfg.Sizing.Shares
	case SizeFraction:
		prices := map[string]float64{sig.Symbol: price}
		budget := port.Equity(prices) * e.cfg.Sizing.Fraction
		return math.Floor(budget / price)
	default:
		if sig.Qty > 0 {
			return sig.Qty
		}
		return e.cfg.Sizing.Shares
	}
}

// affordable applies the funds policy to a buy: clip shrinks the order
// to what cash covers including costs, reject drops it entirely.
func (e *Engine) affordable(res *Result, port *Portfolio, sig strategies.Signal, price, qty float64, at time.Time) float64 {
	cost := func(q float64) float64 {
		return q*price*(1+e.cfg.Costs.CommissionRate) + e.cfg.Costs.FlatFee
	}
	if cost(qty) <= port.Cash {
		return qty
	}
	if e.cfg.Funds == FundsReject {
		res.warnf("BUY %s at %s: rejected, needs %.2f cash has %.2f",
			sig.Symbol, at.Format("2006-01-02"), cost(qty), port.Cash)
		return 0
	}
	clipped := math.Floor((port.Cash - e.cfg.Costs.FlatFee) / (price * (1 + e.cfg.Costs.CommissionRate)))
	if clipped < 0 {
		clipped = 0
	}
	if clipped < qty {
		res.warnf("BUY %s at %s: clipped %v -> %v shares",
			sig.Symbol, at.Format("2006-01-02"), qty, clipped)
	}
	return clipped
}

// unionTimeline merges the symbols' bar timestamps, ascending, unique.
func unionTimeline(series map[string]*market.Series, syms []string) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, sym := range syms {
		for _, b := range series[sym].Bars {
			ts := b.Time.Unix()
			if _, ok := seen[ts]; ok {
				continue
			}
			seen[ts] = struct{}{}
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
