// Package handlers provides HTTP handlers for the portfolio ledger.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cryptodeck/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleListTransactions returns the full ledger
// GET /api/portfolio/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.service.Transactions()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		h.writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txns == nil {
		txns = []portfolio.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txns)
}

// HandleAddTransaction records a buy or sell
// POST /api/portfolio/transactions
func (h *Handler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var txn portfolio.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	stored, err := h.service.AddTransaction(txn)
	if err != nil {
		switch {
		case errors.Is(err, portfolio.ErrInvalidTransaction), errors.Is(err, portfolio.ErrOversell):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to store transaction")
			h.writeError(w, http.StatusInternalServerError, "failed to store transaction")
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, stored)
}

// HandleDeleteTransaction removes a ledger entry
// DELETE /api/portfolio/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteTransaction(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete transaction")
		h.writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}

// HandleGetHoldings returns derived holdings with live valuation
// GET /api/portfolio/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.Holdings(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to derive holdings")
		h.writeError(w, http.StatusInternalServerError, "failed to derive holdings")
		return
	}
	if holdings == nil {
		holdings = []portfolio.Holding{}
	}
	h.writeJSON(w, http.StatusOK, holdings)
}

// HandleGetSummary returns the aggregated portfolio summary
// GET /api/portfolio/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build summary")
		h.writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
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
