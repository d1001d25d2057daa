package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RSISeries computes the Relative Strength Index with Wilder smoothing.
//
// The first `period` positions are NaN. The seed average gain/loss is the
// simple mean of the first `period` moves; subsequent averages use
// avg = (prev*(period-1) + move) / period. When the average loss is zero
// the RSI is 100 by definition, and values are clamped to [0, 100].
func RSISeries(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period < 1 || len(closes) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		move := closes[i] - closes[i-1]
		if move > 0 {
			avgGain += move
		} else {
			avgLoss -= move
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		move := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if move > 0 {
			gain = move
		} else {
			loss = -move
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rsi := 100 - 100/(1+avgGain/avgLoss)
	return math.Max(0, math.Min(100, rsi))
}

// CalculateRSI calculates the current RSI value via talib.
// Returns nil when there is insufficient data.
func CalculateRSI(closes []float64, period int) *float64 {
	if len(closes) <= period {
		return nil
	}

	rsi := talib.Rsi(closes, period)
	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}
	return nil
}

func isNaN(v float64) bool {
	return math.IsNaN(v)
}
