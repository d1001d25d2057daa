package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"cryptodeck/internal/clientdata"
	"cryptodeck/internal/domain"
)

// Adapter implements domain.MarketDataPort on top of the CoinGecko client
// with a cache-first sqlite layer. Series responses are cached for SeriesTTL,
// quotes for QuoteTTL; cache hits never touch the rate limiter.
type Adapter struct {
	client    *Client
	cache     *clientdata.Repository
	currency  string
	seriesTTL time.Duration
	quoteTTL  time.Duration
	log       zerolog.Logger
}

// NewAdapter creates a market-data adapter.
// cache may be nil, in which case every call goes to the provider.
func NewAdapter(
	client *Client,
	cache *clientdata.Repository,
	currency string,
	seriesTTL, quoteTTL time.Duration,
	log zerolog.Logger,
) *Adapter {
	return &Adapter{
		client:    client,
		cache:     cache,
		currency:  currency,
		seriesTTL: seriesTTL,
		quoteTTL:  quoteTTL,
		log:       log.With().Str("component", "market_data").Logger(),
	}
}

// RecentSeries returns up to `days` daily candles for the asset, oldest first.
// CoinGecko only returns close prices and volumes at daily granularity, so
// open/high/low are filled with the close.
func (a *Adapter) RecentSeries(ctx context.Context, assetID string, days int) (domain.Series, error) {
	cacheKey := fmt.Sprintf("%s:%s:%d", assetID, a.currency, days)

	if cached := a.fromCache(clientdata.TableSeries, cacheKey); cached != nil {
		var series domain.Series
		if err := json.Unmarshal(cached, &series); err == nil {
			return series, nil
		}
		// Undecodable cache entry: drop it and refetch
		_ = a.cache.Delete(clientdata.TableSeries, cacheKey)
	}

	chart, err := a.client.MarketChart(ctx, assetID, a.currency, days)
	if err != nil {
		return nil, err
	}

	series := normalizeChart(chart)
	if a.cache != nil {
		if err := a.cache.Store(clientdata.TableSeries, cacheKey, series, a.seriesTTL); err != nil {
			a.log.Warn().Err(err).Str("asset", assetID).Msg("Failed to cache series")
		}
	}
	return series, nil
}

// LatestQuote returns the current price of the asset.
func (a *Adapter) LatestQuote(ctx context.Context, assetID string) (float64, error) {
	cacheKey := fmt.Sprintf("%s:%s", assetID, a.currency)

	if cached := a.fromCache(clientdata.TableQuote, cacheKey); cached != nil {
		var price float64
		if err := json.Unmarshal(cached, &price); err == nil {
			return price, nil
		}
	}

	price, err := a.client.SimplePrice(ctx, assetID, a.currency)
	if err != nil {
		return 0, err
	}

	if a.cache != nil {
		if err := a.cache.Store(clientdata.TableQuote, cacheKey, price, a.quoteTTL); err != nil {
			a.log.Warn().Err(err).Str("asset", assetID).Msg("Failed to cache quote")
		}
	}
	return price, nil
}

func (a *Adapter) fromCache(table, key string) json.RawMessage {
	if a.cache == nil {
		return nil
	}
	data, err := a.cache.GetIfFresh(table, key)
	if err != nil {
		a.log.Warn().Err(err).Str("table", table).Msg("Cache read failed")
		return nil
	}
	return data
}

// normalizeChart converts the raw market_chart payload to a Series.
// CoinGecko returns one point per day plus a trailing point for "now";
// points are bucketed by UTC day keeping the last value, so the result has
// strictly increasing daily timestamps.
func normalizeChart(chart *MarketChartResponse) domain.Series {
	type bucket struct {
		close  float64
		volume float64
	}
	byDay := make(map[time.Time]*bucket, len(chart.Prices))

	day := func(ms float64) time.Time {
		return time.UnixMilli(int64(ms)).UTC().Truncate(24 * time.Hour)
	}

	for _, p := range chart.Prices {
		d := day(p[0])
		if b, ok := byDay[d]; ok {
			b.close = p[1]
		} else {
			byDay[d] = &bucket{close: p[1]}
		}
	}
	for _, v := range chart.TotalVolumes {
		if b, ok := byDay[day(v[0])]; ok {
			b.volume = v[1]
		}
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := make(domain.Series, 0, len(days))
	for _, d := range days {
		b := byDay[d]
		series = append(series, domain.Candle{
			Timestamp: d,
			Open:      b.close,
			High:      b.close,
			Low:       b.close,
			Close:     b.close,
			Volume:    b.volume,
		})
	}
	return series
}
