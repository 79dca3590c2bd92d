package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/quant/dataapi"
	"github.com/rustyeddy/quant/strategies"
)

// ErrNoValidRuns is returned when every parameter combination in an
// optimization failed.
var ErrNoValidRuns = errors.New("optimization produced no valid runs")

// Grid maps a parameter name to its candidate values.
type Grid map[string][]float64

// Combinations expands the grid into the cartesian product of parameter
// sets. Keys are walked in sorted order so the expansion is
// deterministic.
func (g Grid) Combinations() []strategies.Params {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []strategies.Params{{}}
	for _, k := range keys {
		next := make([]strategies.Params, 0, len(out)*len(g[k]))
		for _, base := range out {
			for _, v := range g[k] {
				p := make(strategies.Params, len(base)+1)
				for bk, bv := range base {
					p[bk] = bv
				}
				p[k] = v
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// Metric selects the report figure an optimization ranks by.
type Metric string

const (
	MetricSharpe       Metric = "sharpe"
	MetricTotalReturn  Metric = "total_return"
	MetricAnnualReturn Metric = "annual_return"
	MetricMaxDrawdown  Metric = "max_drawdown"
)

// value extracts the metric from a report. ok is false when the report
// leaves the figure undefined; smaller-is-better metrics report that.
func (m Metric) value(r *Result) (v float64, ok bool) {
	switch m {
	case MetricTotalReturn:
		return r.Report.TotalReturn, true
	case MetricAnnualReturn:
		return r.Report.AnnualReturn, true
	case MetricMaxDrawdown:
		return r.Report.MaxDrawdown, true
	default:
		return r.Report.SharpeRatio, r.Report.SharpeDefined
	}
}

func (m Metric) ascending() bool { return m == MetricMaxDrawdown }

func (m Metric) valid() bool {
	switch m {
	case MetricSharpe, MetricTotalReturn, MetricAnnualReturn, MetricMaxDrawdown:
		return true
	}
	return false
}

// OptimizeRun is one parameter combination's outcome.
type OptimizeRun struct {
	Params strategies.Params
	Result *Result
	Err    error
}

// Optimization is the outcome of a grid search: every run, plus the one
// that ranked best on the chosen metric.
type Optimization struct {
	Strategy string
	Metric   Metric
	Runs     []OptimizeRun
	Best     *OptimizeRun
}

// Optimize grid-searches a strategy's parameters: one engine per
// combination, run concurrently over the shared data API, ranked by
// metric. Combinations the strategy rejects (or whose run fails) are
// kept in Runs with their error but never rank. Runs keep the grid's
// deterministic expansion order.
func Optimize(ctx context.Context, data *dataapi.API, cfg Config, name string, grid Grid, metric Metric, symbols []string, start, end time.Time) (*Optimization, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("optimization grid is empty")
	}
	if !metric.valid() {
		return nil, fmt.Errorf("unknown optimization metric %q", metric)
	}

	combos := grid.Combinations()
	opt := &Optimization{
		Strategy: name,
		Metric:   metric,
		Runs:     make([]OptimizeRun, len(combos)),
	}

	logrus.WithFields(logrus.Fields{
		"component":    "backtest",
		"strategy":     name,
		"combinations": len(combos),
		"metric":       metric,
	}).Info("optimization started")

	var wg sync.WaitGroup
	for i, params := range combos {
		wg.Add(1)
		go func(i int, params strategies.Params) {
			defer wg.Done()

			opt.Runs[i].Params = params

			strat, err := strategies.New(name, params)
			if err != nil {
				opt.Runs[i].Err = err
				return
			}
			eng, err := New(data, cfg)
			if err != nil {
				opt.Runs[i].Err = err
				return
			}
			opt.Runs[i].Result, opt.Runs[i].Err = eng.Run(ctx, strat, symbols, start, end)
		}(i, params)
	}
	wg.Wait()

	for i := range opt.Runs {
		run := &opt.Runs[i]
		if run.Err != nil {
			continue
		}
		v, ok := metric.value(run.Result)
		if !ok {
			continue
		}
		if opt.Best == nil {
			opt.Best = run
			continue
		}
		best, _ := metric.value(opt.Best.Result)
		if metric.ascending() && v < best || !metric.ascending() && v > best {
			opt.Best = run
		}
	}
	if opt.Best == nil {
		return nil, ErrNoValidRuns
	}

	logrus.WithFields(logrus.Fields{
		"component": "backtest",
		"strategy":  name,
		"best":      fmt.Sprintf("%v", opt.Best.Params),
	}).Info("optimization completed")

	return opt, nil
}
