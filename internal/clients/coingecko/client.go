// Package coingecko provides client functionality for the CoinGecko HTTP API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptodeck/internal/domain"
)

// Client is a rate-limited CoinGecko API client.
// The public API allows roughly one request per second; the client enforces
// a configurable minimum spacing between requests process-wide.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	minInterval time.Duration
	log         zerolog.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new CoinGecko client
func NewClient(baseURL, apiKey string, timeout, minInterval time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		minInterval: minInterval,
		log:         log.With().Str("client", "coingecko").Logger(),
	}
}

// MarketChartResponse is the raw /coins/{id}/market_chart payload.
// Each entry is a [timestamp_ms, value] pair.
type MarketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// MarketChart fetches up to `days` days of daily prices and volumes for a coin.
func (c *Client) MarketChart(ctx context.Context, coinID, currency string, days int) (*MarketChartResponse, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("days", fmt.Sprintf("%d", days))
	params.Set("interval", "daily")

	var out MarketChartResponse
	if err := c.get(ctx, "market_chart", fmt.Sprintf("/coins/%s/market_chart", url.PathEscape(coinID)), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SimplePrice fetches the current price of a coin in the given currency.
func (c *Client) SimplePrice(ctx context.Context, coinID, currency string) (float64, error) {
	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", currency)

	var out map[string]map[string]float64
	if err := c.get(ctx, "simple_price", "/simple/price", params, &out); err != nil {
		return 0, err
	}

	price, ok := out[coinID][currency]
	if !ok {
		return 0, &domain.ProviderError{
			Op:  "simple_price",
			Err: fmt.Errorf("no price for %s in %s", coinID, currency),
		}
	}
	return price, nil
}

// get performs a rate-limited GET and decodes the JSON response into dst.
// All failures are reported as *domain.ProviderError.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, dst interface{}) error {
	if err := c.throttle(ctx); err != nil {
		return &domain.ProviderError{Op: op, Err: err}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &domain.ProviderError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("Request failed")
		return &domain.ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Provider request completed")

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &domain.ProviderError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &domain.ProviderError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// throttle blocks until at least minInterval has passed since the previous
// request. Respects context cancellation while waiting.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	wait := c.minInterval - time.Since(c.lastRequest)
	if wait <= 0 {
		c.lastRequest = time.Now()
		c.mu.Unlock()
		return nil
	}
	// Reserve the slot before releasing the lock so concurrent callers queue up
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
