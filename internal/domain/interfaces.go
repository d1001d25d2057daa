package domain

import (
	"context"
	"fmt"
)

// MarketDataPort abstracts the market-data provider.
// Rate limiting, retries, response caching, and provider-specific
// normalization live behind this interface; consumers never observe them.
//
// The prediction facade is the only core component allowed to call it.
type MarketDataPort interface {
	// RecentSeries returns up to `days` daily candles for the asset,
	// oldest first. Returns a ProviderError on network or upstream failure.
	RecentSeries(ctx context.Context, assetID string, days int) (Series, error)

	// LatestQuote returns the current price of the asset in USD.
	LatestQuote(ctx context.Context, assetID string) (float64, error)
}

// ProviderError reports a market-data provider failure (network error,
// timeout, or non-2xx upstream response).
type ProviderError struct {
	Op         string // Operation that failed, e.g. "market_chart"
	StatusCode int    // HTTP status, 0 when the request never completed
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
