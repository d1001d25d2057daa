// Package handlers provides HTTP handlers for sentiment scores.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cryptodeck/internal/modules/sentiment"
)

// AssetSource supplies the default asset set for the market-wide score
// when the request names none; wired to the portfolio holdings.
type AssetSource func(ctx context.Context) []string

// Handler handles sentiment HTTP requests
type Handler struct {
	service       *sentiment.Service
	defaultAssets AssetSource
	log           zerolog.Logger
}

// NewHandler creates a new sentiment handler. defaultAssets may be nil.
func NewHandler(service *sentiment.Service, defaultAssets AssetSource, log zerolog.Logger) *Handler {
	return &Handler{
		service:       service,
		defaultAssets: defaultAssets,
		log:           log.With().Str("handler", "sentiment").Logger(),
	}
}

// HandleGetAssetSentiment scores one asset
// GET /api/sentiment/{asset}
func (h *Handler) HandleGetAssetSentiment(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset")
	if assetID == "" {
		h.writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	score, err := h.service.ScoreAsset(r.Context(), assetID)
	if err != nil {
		h.log.Warn().Err(err).Str("asset", assetID).Msg("Failed to score asset")
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, score)
}

// HandleGetMarketSentiment aggregates sentiment across assets
// GET /api/sentiment?assets=bitcoin,ethereum (defaults to held assets)
func (h *Handler) HandleGetMarketSentiment(w http.ResponseWriter, r *http.Request) {
	assets := splitAssets(r.URL.Query().Get("assets"))
	if len(assets) == 0 && h.defaultAssets != nil {
		assets = h.defaultAssets(r.Context())
	}
	if len(assets) == 0 {
		h.writeError(w, http.StatusUnprocessableEntity, "no assets to score; pass ?assets= or add holdings")
		return
	}

	market, err := h.service.ScoreMarket(r.Context(), assets)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to score market")
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, market)
}

func splitAssets(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	assets := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			assets = append(assets, trimmed)
		}
	}
	return assets
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
