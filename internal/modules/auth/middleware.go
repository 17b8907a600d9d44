package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// RequireSession guards routes behind a live session. The bearer token names
// the session; the X-User-Email header must match the session's user so a
// stale client cannot act as someone else. DevMode trusts the header alone,
// for local work without Google credentials.
func RequireSession(service *Service, devMode bool, log zerolog.Logger) func(http.Handler) http.Handler {
	log = log.With().Str("middleware", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Email")))

			if devMode {
				if email == "" {
					unauthorized(w, "X-User-Email header is required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "Authorization bearer token is required")
				return
			}

			session, err := service.SessionFor(token)
			if err != nil {
				log.Error().Err(err).Msg("Session lookup failed")
				writeStatus(w, http.StatusInternalServerError, "Session lookup failed")
				return
			}
			if session == nil {
				unauthorized(w, "Session is invalid or expired")
				return
			}
			if email != "" && email != session.UserEmail {
				writeStatus(w, http.StatusForbidden, "X-User-Email does not match session")
				return
			}

			// Downstream handlers key on this header
			r.Header.Set("X-User-Email", session.UserEmail)
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusUnauthorized, message)
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
