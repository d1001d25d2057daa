package testing

import (
	"context"
	"sync"

	"cryptodeck/internal/domain"
)

// MockMarketDataPort is an in-memory MarketDataPort for tests. Series and
// quotes are registered per asset; unknown assets return the configured
// error, or a zero-value result when no error is set.
type MockMarketDataPort struct {
	mu     sync.RWMutex
	series map[string]domain.Series
	quotes map[string]float64
	err    error

	// SeriesCalls counts RecentSeries invocations, for cache/flow assertions
	SeriesCalls int
}

// NewMockMarketDataPort creates an empty market-data mock
func NewMockMarketDataPort() *MockMarketDataPort {
	return &MockMarketDataPort{
		series: make(map[string]domain.Series),
		quotes: make(map[string]float64),
	}
}

// SetSeries registers the series returned for an asset
func (m *MockMarketDataPort) SetSeries(assetID string, series domain.Series) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[assetID] = series
}

// SetQuote registers the quote returned for an asset
func (m *MockMarketDataPort) SetQuote(assetID string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[assetID] = price
}

// SetError makes every call fail with err until reset with nil
func (m *MockMarketDataPort) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// RecentSeries returns the registered series regardless of the requested
// window; tests control the data shape directly
func (m *MockMarketDataPort) RecentSeries(ctx context.Context, assetID string, days int) (domain.Series, error) {
	m.mu.Lock()
	m.SeriesCalls++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.series[assetID], nil
}

// LatestQuote returns the registered quote for an asset
func (m *MockMarketDataPort) LatestQuote(ctx context.Context, assetID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.quotes[assetID], nil
}
