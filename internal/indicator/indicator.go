// Package indicator computes derived series (moving averages, RSI, MACD)
// over a price history. All functions are pure: the output is aligned with
// the input slice and the input is never modified.
package indicator

import "math"

// SMA returns the simple moving average over the given window. The first
// window-1 entries are NaN: the value is undefined there and must not be
// used for signaling.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA returns the exponential moving average with smoothing 2/(period+1).
// The series is seeded with the first value.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}

	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// RSI returns the relative strength index over the given period, using
// rolling means of gains and losses. Undefined leading values are
// back-filled with the first computed value, and windows with zero average
// movement resolve to the neutral 50 rather than NaN. A window with losses
// but no gains is 0; gains but no losses is 100.
func RSI(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// First defined index: period changes, i.e. bar period.
	first := -1
	var gainSum, lossSum float64
	for i := 1; i < len(values); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		switch {
		case avgGain == 0 && avgLoss == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
		if first < 0 {
			first = i
		}
	}

	// Back-fill the warm-up region; an all-warm-up series stays neutral.
	fill := 50.0
	if first >= 0 {
		fill = out[first]
	} else {
		first = len(values)
	}
	for i := 0; i < first; i++ {
		out[i] = fill
	}
	return out
}

// MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the difference of the fast and slow EMAs with an EMA of
// that difference as the signal line. The classic parameters are (12,26,9).
func MACD(values []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	macd := make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMA(macd, signal)

	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = macd[i] - signalLine[i]
	}
	return MACDResult{MACD: macd, Signal: signalLine, Histogram: hist}
}
