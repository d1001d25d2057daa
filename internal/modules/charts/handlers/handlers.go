// Package handlers provides HTTP handlers for chart data.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cryptodeck/internal/modules/charts"
)

// Handler handles chart HTTP requests
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// HandleGetSeries returns daily candles for an asset
// GET /api/charts/{asset}?days=30
func (h *Handler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset")
	if assetID == "" {
		h.writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	series, err := h.service.Series(r.Context(), assetID, days)
	if err != nil {
		h.log.Warn().Err(err).Str("asset", assetID).Msg("Failed to fetch chart series")
		h.writeError(w, http.StatusBadGateway, "failed to fetch chart series")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset_id": assetID,
		"days":     days,
		"candles":  series,
	})
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
