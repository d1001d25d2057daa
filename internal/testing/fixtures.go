package testing

import (
	"math"
	"time"

	"cryptodeck/internal/domain"
)

// TrendSeries builds a deterministic daily series: a linear drift plus a
// small sine wobble so indicators have something to measure. dailyDriftPct
// is the per-day percent change of the underlying trend.
func TrendSeries(n int, startPrice, dailyDriftPct float64) domain.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.Series, n)

	price := startPrice
	for i := 0; i < n; i++ {
		wobble := 1 + 0.01*math.Sin(float64(i)/3)
		close := price * wobble
		series[i] = domain.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      close,
			High:      close,
			Low:       close,
			Close:     close,
			Volume:    1000 + 200*math.Sin(float64(i)/5),
		}
		price *= 1 + dailyDriftPct/100
	}
	return series
}

// FlatSeries builds a constant-price series; useful for degenerate-input
// paths like zero variance and zero volume
func FlatSeries(n int, price, volume float64) domain.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.Series, n)
	for i := 0; i < n; i++ {
		series[i] = domain.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
		}
	}
	return series
}

// RisingSeries builds a strictly increasing series (every close above the
// previous one), which drives RSI to its ceiling
func RisingSeries(n int, startPrice float64) domain.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.Series, n)
	price := startPrice
	for i := 0; i < n; i++ {
		series[i] = domain.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    1000,
		}
		price *= 1.01
	}
	return series
}
