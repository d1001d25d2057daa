// Package formulas provides statistics and technical-indicator primitives.
// Series functions return slices aligned with their input; positions without
// enough trailing history hold NaN so callers can drop unusable rows.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the population-free (sample) standard deviation
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets.
// Zero variance in either dataset yields 0, not NaN.
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Returns converts prices to simple percentage returns (as decimals).
// Returns[i] = (Price[i+1] - Price[i]) / Price[i], length len(prices)-1.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// RollingStd computes the trailing sample standard deviation over a window.
// The first window-1 positions are NaN.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		out[i] = stat.StdDev(values[i-window+1:i+1], nil)
	}
	return out
}

// RollingCorrelation computes the trailing Pearson correlation between two
// series over a window. Zero variance on either side yields 0; the first
// window-1 positions are NaN.
func RollingCorrelation(x, y []float64, window int) []float64 {
	out := nanSlice(len(x))
	if len(x) != len(y) || window < 2 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		out[i] = Correlation(x[i-window+1:i+1], y[i-window+1:i+1])
	}
	return out
}

// RollingMax computes the trailing maximum over a window; NaN-padded head.
func RollingMax(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		max := values[i-window+1]
		for _, v := range values[i-window+2 : i+1] {
			if v > max {
				max = v
			}
		}
		out[i] = max
	}
	return out
}

// RollingMin computes the trailing minimum over a window; NaN-padded head.
func RollingMin(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		min := values[i-window+1]
		for _, v := range values[i-window+2 : i+1] {
			if v < min {
				min = v
			}
		}
		out[i] = min
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
