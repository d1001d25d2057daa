package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all prediction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/prediction", func(r chi.Router) {
		r.Get("/models", h.HandleListModels) // Stored model metadata

		r.Route("/{asset}", func(r chi.Router) {
			r.Get("/", h.HandleGetPrediction)      // Prediction at ?horizon=
			r.Post("/train", h.HandleTrain)        // Explicit (re)train
			r.Delete("/model", h.HandleDeleteModel) // Drop stored model
		})
	})
}
