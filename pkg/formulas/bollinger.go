package formulas

import (
	"github.com/markcheno/go-talib"
)

// BollingerSeries computes Bollinger Bands over a trailing window.
// Middle is the SMA, upper/lower are mult standard deviations away.
// The first window-1 positions are NaN.
func BollingerSeries(closes []float64, window int, mult float64) (upper, middle, lower []float64) {
	middle = SMASeries(closes, window)
	std := RollingStd(closes, window)

	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := window - 1; i < len(closes); i++ {
		upper[i] = middle[i] + mult*std[i]
		lower[i] = middle[i] - mult*std[i]
	}
	return upper, middle, lower
}

// BollingerBands represents current Bollinger Bands values
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// CalculateBollingerBands calculates the current Bollinger Bands via talib.
// Returns nil when there is insufficient data.
func CalculateBollingerBands(closes []float64, length int, stdDevMultiplier float64) *BollingerBands {
	if len(closes) < length {
		return nil
	}

	// MAType 0 = SMA
	upper, middle, lower := talib.BBands(closes, length, stdDevMultiplier, stdDevMultiplier, 0)

	if len(upper) > 0 && !isNaN(upper[len(upper)-1]) {
		return &BollingerBands{
			Upper:  upper[len(upper)-1],
			Middle: middle[len(middle)-1],
			Lower:  lower[len(lower)-1],
		}
	}
	return nil
}

// CalculateBollingerPosition calculates where the current price sits within
// the bands: 0.0 at the lower band, 1.0 at the upper band, clamped.
func CalculateBollingerPosition(closes []float64, length int, stdDevMultiplier float64) *float64 {
	if len(closes) == 0 {
		return nil
	}

	bands := CalculateBollingerBands(closes, length, stdDevMultiplier)
	if bands == nil {
		return nil
	}

	currentPrice := closes[len(closes)-1]
	bandWidth := bands.Upper - bands.Lower

	position := 0.5
	if bandWidth != 0 {
		position = (currentPrice - bands.Lower) / bandWidth
		if position < 0 {
			position = 0
		}
		if position > 1 {
			position = 1
		}
	}
	return &position
}
