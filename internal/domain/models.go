// Package domain provides core domain models and the ports shared across modules.
package domain

import "time"

// Currency represents a quote currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Candle represents one daily price bar for an asset.
// When the provider only returns close prices, Open/High/Low are filled
// with the close and Volume is 0; consumers must tolerate that.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is a time-ordered list of daily candles for a single asset.
// Timestamps are strictly increasing.
type Series []Candle

// Closes returns the close column of the series
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Volumes returns the volume column of the series
func (s Series) Volumes() []float64 {
	volumes := make([]float64, len(s))
	for i, c := range s {
		volumes[i] = c.Volume
	}
	return volumes
}

// Sorted reports whether timestamps are strictly increasing
func (s Series) Sorted() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].Timestamp.After(s[i-1].Timestamp) {
			return false
		}
	}
	return true
}
