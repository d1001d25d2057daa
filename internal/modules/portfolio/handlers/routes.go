package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/holdings", h.HandleGetHoldings) // Derived positions with valuation
		r.Get("/summary", h.HandleGetSummary)   // Aggregate value / cost / P&L

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.HandleListTransactions)
			r.Post("/", h.HandleAddTransaction)
			r.Delete("/{id}", h.HandleDeleteTransaction)
		})
	})
}
