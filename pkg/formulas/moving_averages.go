package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMASeries computes the simple trailing moving average.
// The first window-1 positions are NaN.
func SMASeries(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 1 || len(values) < window {
		return out
	}

	sum := 0.0
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

// EMASeries computes an exponential moving average with smoothing
// alpha = 2/(span+1), seeded with the first observation. Seeding with the
// first value instead of an SMA warmup keeps every position defined and
// avoids look-back bias.
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// CalculateEMA calculates the current EMA value via talib, falling back to
// the mean when there is not enough data for a proper EMA.
// Returns nil on empty input.
func CalculateEMA(closes []float64, length int) *float64 {
	if len(closes) == 0 {
		return nil
	}

	if len(closes) < length {
		sma := Mean(closes)
		return &sma
	}

	ema := talib.Ema(closes, length)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	sma := Mean(closes[len(closes)-length:])
	return &sma
}

// CalculateSMA calculates the current SMA value via talib.
// Returns nil when there is insufficient data.
func CalculateSMA(closes []float64, length int) *float64 {
	if len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// CalculateDistanceFromEMA calculates the fractional distance of the current
// price from its EMA. Positive when price is above the EMA.
func CalculateDistanceFromEMA(closes []float64, length int) *float64 {
	if len(closes) == 0 {
		return nil
	}

	ema := CalculateEMA(closes, length)
	if ema == nil || *ema == 0 {
		return nil
	}

	currentPrice := closes[len(closes)-1]
	distance := (currentPrice - *ema) / *ema
	return &distance
}
