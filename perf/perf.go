// Package perf derives performance statistics from a completed equity
// curve and trade log.
package perf

import (
	"math"
	"time"
)

// EquityPoint is one (timestamp, total equity) snapshot of a run.
type EquityPoint struct {
	Time   time.Time
	Equity float64
	Cash   float64
}

// Trade is one closed round trip: a closing fill matched against the
// position's average cost at the time of the close.
type Trade struct {
	ID         string
	Symbol     string
	Units      float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
}

// Config tunes annualization.
type Config struct {
	TradingPeriodsPerYear int
	RiskFreeRate          float64 // annual
}

func DefaultConfig() Config {
	return Config{TradingPeriodsPerYear: 252, RiskFreeRate: 0.03}
}

// Report is the immutable summary of one completed run. Ratios whose
// denominator is zero are reported with their Defined flag false rather
// than as NaN.
type Report struct {
	InitialEquity float64
	FinalEquity   float64
	Periods       int

	TotalReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	Volatility   float64

	SharpeRatio   float64
	SharpeDefined bool

	ClosedTrades int
	Wins         int
	Losses       int

	WinRate        float64
	WinRateDefined bool

	ProfitLossRatio float64
	PLRatioDefined  bool

	BenchmarkReturn  float64
	Alpha            float64
	Beta             float64
	BenchmarkDefined bool
}

// Analyze computes the report for one equity curve and trade log.
// initialEquity is the capital before the first snapshot.
func Analyze(initialEquity float64, curve []EquityPoint, trades []Trade, cfg Config) Report {
	if cfg.TradingPeriodsPerYear <= 0 {
		cfg.TradingPeriodsPerYear = 252
	}

	r := Report{
		InitialEquity: initialEquity,
		FinalEquity:   initialEquity,
		Periods:       len(curve),
	}

	// Per-period simple returns over [initial, curve...].
	values := make([]float64, 0, len(curve)+1)
	values = append(values, initialEquity)
	for _, p := range curve {
		values = append(values, p.Equity)
	}
	returns := make([]float64, 0, len(curve))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}

	if len(curve) > 0 {
		r.FinalEquity = curve[len(curve)-1].Equity
	}
	if initialEquity != 0 {
		r.TotalReturn = r.FinalEquity/initialEquity - 1
	}
	if len(returns) > 0 {
		periodsPerYear := float64(cfg.TradingPeriodsPerYear)
		r.AnnualReturn = math.Pow(1+r.TotalReturn, periodsPerYear/float64(len(returns))) - 1

		std := stddev(returns)
		r.Volatility = std * math.Sqrt(periodsPerYear)

		if std > 0 {
			rfPeriod := cfg.RiskFreeRate / periodsPerYear
			excess := mean(returns) - rfPeriod
			r.SharpeRatio = excess / std * math.Sqrt(periodsPerYear)
			r.SharpeDefined = true
		}
	}

	r.MaxDrawdown = maxDrawdown(values)

	var profit, loss float64
	for _, t := range trades {
		r.ClosedTrades++
		switch {
		case t.RealizedPL > 0:
			r.Wins++
			profit += t.RealizedPL
		case t.RealizedPL < 0:
			r.Losses++
			loss -= t.RealizedPL
		}
	}
	if r.ClosedTrades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.ClosedTrades)
		r.WinRateDefined = true
	}
	if r.Wins > 0 && r.Losses > 0 {
		r.ProfitLossRatio = (profit / float64(r.Wins)) / (loss / float64(r.Losses))
		r.PLRatioDefined = true
	}

	return r
}

// Benchmark fills the report's benchmark-relative fields. closes must be
// the benchmark's closes aligned one-to-one with the curve Analyze saw.
// BenchmarkReturn is the benchmark's own return over the window; Beta is
// the covariance of the strategy's per-period returns against the
// benchmark's over its variance, and Alpha the annualized CAPM excess.
// Fewer than two closes, or a zero first close, leaves the fields
// undefined; a flat benchmark leaves Beta at zero.
func Benchmark(r *Report, curve []EquityPoint, closes []float64, cfg Config) {
	if len(closes) < 2 || len(closes) != len(curve) || closes[0] == 0 {
		return
	}

	r.BenchmarkReturn = closes[len(closes)-1]/closes[0] - 1
	r.BenchmarkDefined = true

	// Per-period returns, curve point to curve point, so both series
	// cover the same periods.
	stratReturns := make([]float64, 0, len(curve)-1)
	benchReturns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity == 0 || closes[i-1] == 0 {
			return
		}
		stratReturns = append(stratReturns, curve[i].Equity/curve[i-1].Equity-1)
		benchReturns = append(benchReturns, closes[i]/closes[i-1]-1)
	}

	if v := variance(benchReturns); v > 0 {
		r.Beta = covariance(stratReturns, benchReturns) / v
	}
	r.Alpha = r.AnnualReturn - cfg.RiskFreeRate - r.Beta*(r.BenchmarkReturn-cfg.RiskFreeRate)
}

// maxDrawdown returns the largest peak-to-trough decline as a fraction of
// the running peak. Always in [0, 1]: equity dropping through zero (a
// blown-up short) caps at a full drawdown.
func maxDrawdown(values []float64) float64 {
	dd := 0.0
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if d := (peak - v) / peak; d > dd {
				dd = d
			}
		}
	}
	if dd > 1 {
		dd = 1
	}
	return dd
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

// variance is the population variance.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

// covariance is the population covariance of two equal-length series.
func covariance(xs, ys []float64) float64 {
	if len(xs) == 0 || len(xs) != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(len(xs))
}
