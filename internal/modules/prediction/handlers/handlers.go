// Package handlers provides HTTP handlers for the prediction module.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cryptodeck/internal/domain"
	"cryptodeck/internal/modules/prediction"
)

// Handler handles prediction HTTP requests
type Handler struct {
	service *prediction.Service
	market  domain.MarketDataPort
	log     zerolog.Logger
}

// NewHandler creates a new prediction handler
func NewHandler(service *prediction.Service, market domain.MarketDataPort, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		market:  market,
		log:     log.With().Str("handler", "prediction").Logger(),
	}
}

// HandleTrain trains a model for an asset
// POST /api/prediction/{asset}/train?horizon=7
func (h *Handler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset")
	if assetID == "" {
		h.writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}
	horizon := h.horizonParam(r)

	ok, message := h.service.Train(r.Context(), assetID, horizon)
	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, map[string]interface{}{
		"asset_id": assetID,
		"success":  ok,
		"message":  message,
	})
}

// HandleGetPrediction returns a prediction for an asset
// GET /api/prediction/{asset}?horizon=7
func (h *Handler) HandleGetPrediction(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset")
	if assetID == "" {
		h.writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}
	horizon := h.horizonParam(r)

	pred := h.service.Predict(r.Context(), assetID, h.currentPrice(r.Context(), assetID), horizon)
	h.writeJSON(w, http.StatusOK, pred)
}

// HandleDeleteModel removes the stored model for an asset
// DELETE /api/prediction/{asset}/model
func (h *Handler) HandleDeleteModel(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset")
	if assetID == "" {
		h.writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	if err := h.service.DeleteModel(assetID); err != nil {
		h.log.Error().Err(err).Str("asset", assetID).Msg("Failed to delete model")
		h.writeError(w, http.StatusInternalServerError, "failed to delete model")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset_id": assetID,
		"deleted":  true,
	})
}

// HandleListModels lists metadata for all stored models
// GET /api/prediction/models
func (h *Handler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.ListModels()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list models")
		h.writeError(w, http.StatusInternalServerError, "failed to list models")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": models,
		"count":  len(models),
	})
}

// horizonParam parses ?horizon= with a 7-day default, clamped to [1, 365]
func (h *Handler) horizonParam(r *http.Request) int {
	horizon := 7
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			horizon = parsed
		}
	}
	if horizon > 365 {
		horizon = 365
	}
	return horizon
}

// currentPrice fetches the live quote; a zero result lets the service fall
// back to the last close in the series
func (h *Handler) currentPrice(ctx context.Context, assetID string) float64 {
	price, err := h.market.LatestQuote(ctx, assetID)
	if err != nil {
		h.log.Warn().Err(err).Str("asset", assetID).Msg("Quote unavailable, using last close")
		return 0
	}
	return price
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
