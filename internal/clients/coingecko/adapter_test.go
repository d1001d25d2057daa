package coingecko

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"cryptodeck/internal/clientdata"
)

func newTestCache(t *testing.T) *clientdata.Repository {
	t.Helper()

	db, err := sql.Open("sqlite", "file:adapter_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := clientdata.NewRepository(db)
	require.NoError(t, repo.EnsureSchema())
	for _, table := range clientdata.AllTables {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	return repo
}

func TestNormalizeChart(t *testing.T) {
	day0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day1 := day0.Add(24 * time.Hour)

	chart := &MarketChartResponse{
		Prices: [][2]float64{
			{float64(day0.UnixMilli()), 100},
			{float64(day1.UnixMilli()), 110},
			// Trailing intraday point for "now", same day as day1
			{float64(day1.Add(9 * time.Hour).UnixMilli()), 112},
		},
		TotalVolumes: [][2]float64{
			{float64(day0.UnixMilli()), 5e8},
			{float64(day1.UnixMilli()), 6e8},
		},
	}

	series := normalizeChart(chart)
	require.Len(t, series, 2)

	assert.Equal(t, day0, series[0].Timestamp)
	assert.Equal(t, 100.0, series[0].Close)
	assert.Equal(t, 100.0, series[0].Open) // OHL filled with close
	assert.Equal(t, 5e8, series[0].Volume)

	// Last point of the day wins
	assert.Equal(t, 112.0, series[1].Close)
	assert.True(t, series.Sorted())
}

func TestRecentSeriesUsesCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"prices": [[1700000000000, 42.0]], "total_volumes": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	adapter := NewAdapter(client, newTestCache(t), "usd", time.Hour, time.Minute, zerolog.Nop())

	first, err := adapter.RecentSeries(context.Background(), "bitcoin", 30)
	require.NoError(t, err)
	second, err := adapter.RecentSeries(context.Background(), "bitcoin", 30)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, first, second)
}

func TestLatestQuoteUsesCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 99.5}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	adapter := NewAdapter(client, newTestCache(t), "usd", time.Hour, time.Minute, zerolog.Nop())

	price, err := adapter.LatestQuote(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 99.5, price)

	price, err = adapter.LatestQuote(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 99.5, price)
	assert.Equal(t, 1, hits)
}
