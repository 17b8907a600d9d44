// Package handlers provides HTTP handlers for sign-in and session management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"condorledger/internal/modules/auth"
)

// AuthHandlers contains HTTP handlers for the auth API
type AuthHandlers struct {
	service *auth.Service
	log     zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(service *auth.Service, log zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		service: service,
		log:     log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Code string `json:"code"`
}

// HandleGoogleLogin exchanges a Google authorization code for a session
// POST /api/auth/google
func (h *AuthHandlers) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		h.writeError(w, http.StatusBadRequest, "Authorization code is required")
		return
	}

	session, err := h.service.Login(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthorized) {
			h.writeError(w, http.StatusForbidden, "This email is not authorized to use the application")
			return
		}
		h.log.Warn().Err(err).Msg("Sign-in failed")
		h.writeError(w, http.StatusUnauthorized, "Sign-in failed")
		return
	}

	h.writeJSON(w, http.StatusOK, session)
}

// HandleGetSession returns the session behind the bearer token
// GET /api/auth/session
func (h *AuthHandlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.writeError(w, http.StatusUnauthorized, "Authorization bearer token is required")
		return
	}

	session, err := h.service.SessionFor(token)
	if err != nil {
		h.log.Error().Err(err).Msg("Session lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Session lookup failed")
		return
	}
	if session == nil {
		h.writeError(w, http.StatusUnauthorized, "Session is invalid or expired")
		return
	}

	h.writeJSON(w, http.StatusOK, session)
}

// HandleLogout invalidates the session behind the bearer token
// POST /api/auth/logout
func (h *AuthHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.writeError(w, http.StatusUnauthorized, "Authorization bearer token is required")
		return
	}

	if err := h.service.Logout(token); err != nil {
		h.log.Error().Err(err).Msg("Logout failed")
		h.writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeJSON writes a JSON response
func (h *AuthHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *AuthHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
