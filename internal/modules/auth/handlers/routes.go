package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all auth routes
func (h *AuthHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/google", h.HandleGoogleLogin)
		r.Get("/session", h.HandleGetSession)
		r.Post("/logout", h.HandleLogout)
	})
}
