package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all matrix routes
func (h *MatrixHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/matrix", func(r chi.Router) {
		r.Post("/calculate", h.HandleCalculate) // Sizing pass
		r.Get("/tables", h.HandleGetTables)     // Reference tables
	})
}
