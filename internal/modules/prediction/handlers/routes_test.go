package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodeck/internal/config"
	"cryptodeck/internal/modules/prediction"
	testingpkg "cryptodeck/internal/testing"
)

func newTestHandler(t *testing.T) (*Handler, *testingpkg.MockMarketDataPort) {
	t.Helper()

	store, err := prediction.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	cfg := config.PredictionConfig{MinHistory: 30, MinPredict: 10, HoldoutFraction: 0.2}
	market := testingpkg.NewMockMarketDataPort()
	service := prediction.NewService(market, store, prediction.NewPipeline(cfg.MinPredict), cfg, zerolog.Nop())

	return NewHandler(service, market, zerolog.Nop()), market
}

func TestRegisterRoutes(t *testing.T) {
	handler, market := newTestHandler(t)
	market.SetSeries("bitcoin", testingpkg.TrendSeries(150, 100, 0.3))
	market.SetQuote("bitcoin", 110)

	router := chi.NewRouter()
	require.NotPanics(t, func() {
		router.Route("/api", func(r chi.Router) {
			handler.RegisterRoutes(r)
		})
	})

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/prediction/models"},
		{http.MethodGet, "/api/prediction/bitcoin/"},
		{http.MethodPost, "/api/prediction/bitcoin/train"},
		{http.MethodDelete, "/api/prediction/bitcoin/model"},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.NotEqualf(t, http.StatusNotFound, rec.Code, "%s %s should be routed", tc.method, tc.path)
	}
}

func TestHandleGetPredictionReturnsRecord(t *testing.T) {
	handler, market := newTestHandler(t)
	market.SetSeries("bitcoin", testingpkg.TrendSeries(150, 100, 0.3))
	market.SetQuote("bitcoin", 110)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/prediction/bitcoin/?horizon=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var pred prediction.Prediction
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pred))
	assert.Equal(t, "bitcoin", pred.AssetID)
	assert.Equal(t, 7, pred.TimeFrameDays)
	assert.Equal(t, 110.0, pred.CurrentPrice)
	assert.False(t, pred.IsFallback)
}

func TestHandleTrainReportsFailure(t *testing.T) {
	handler, market := newTestHandler(t)
	market.SetSeries("bitcoin", testingpkg.TrendSeries(5, 100, 0.3))

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/prediction/bitcoin/train", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
}

func TestHandleDeleteModel(t *testing.T) {
	handler, market := newTestHandler(t)
	market.SetSeries("bitcoin", testingpkg.TrendSeries(150, 100, 0.3))

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	train := httptest.NewRequest(http.MethodPost, "/api/prediction/bitcoin/train", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, train)
	require.Equal(t, http.StatusOK, rec.Code)

	del := httptest.NewRequest(http.MethodDelete, "/api/prediction/bitcoin/model", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, del)
	require.Equal(t, http.StatusOK, rec.Code)

	list := httptest.NewRequest(http.MethodGet, "/api/prediction/models", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, list)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 0, body.Count)
}
