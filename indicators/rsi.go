package indicators

// RSI returns the Relative Strength Index of the closes over a period,
// aligned with the input; positions before warmup are NaN. Gains and
// losses are simple rolling means of the one-bar deltas.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	for i := period; i < len(values); i++ {
		gain, loss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - values[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)

		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Momentum returns the percentage change of each value against the value
// lookback positions earlier, aligned with the input; positions before
// warmup are NaN.
func Momentum(values []float64, lookback int) []float64 {
	out := nanSlice(len(values))
	if lookback <= 0 || len(values) <= lookback {
		return out
	}

	for i := lookback; i < len(values); i++ {
		if values[i-lookback] == 0 {
			continue
		}
		out[i] = (values[i]/values[i-lookback] - 1) * 100
	}
	return out
}

// Bollinger returns the middle band (rolling mean) and the upper/lower
// bands at k rolling standard deviations, all aligned with the input.
func Bollinger(values []float64, window int, k float64) (middle, upper, lower []float64) {
	middle = RollingMean(values, window)
	std := RollingStd(values, window)

	upper = make([]float64, len(values))
	lower = make([]float64, len(values))
	for i := range values {
		upper[i] = middle[i] + std[i]*k
		lower[i] = middle[i] - std[i]*k
	}
	return middle, upper, lower
}
