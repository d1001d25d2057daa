// Package charts serves historical candle series for the dashboard charts.
package charts

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"cryptodeck/internal/domain"
)

// maxDays caps the chart window to what the provider serves daily candles for
const maxDays = 365

// Service fetches chart series through the market-data port, which already
// caches and rate-limits
type Service struct {
	market domain.MarketDataPort
	log    zerolog.Logger
}

// NewService creates the charts service
func NewService(market domain.MarketDataPort, log zerolog.Logger) *Service {
	return &Service{
		market: market,
		log:    log.With().Str("service", "charts").Logger(),
	}
}

// Series returns up to days of daily candles for an asset, oldest first
func (s *Service) Series(ctx context.Context, assetID string, days int) (domain.Series, error) {
	if days < 1 {
		days = 30
	}
	if days > maxDays {
		days = maxDays
	}

	series, err := s.market.RecentSeries(ctx, assetID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart series for %s: %w", assetID, err)
	}
	if len(series) > days {
		series = series[len(series)-days:]
	}
	return series, nil
}
