// Package auth implements Google sign-in against a fixed allowlist and the
// session store backing it.
package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is one authenticated browser session
type Session struct {
	Token     string    `json:"token"`
	UserEmail string    `json:"userEmail"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Profile is the identity payload captured at sign-in
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// SessionRepository handles session database operations
type SessionRepository struct {
	db  *sql.DB // sessions.db - cache profile
	log zerolog.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB, log zerolog.Logger) *SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log.With().Str("repo", "sessions").Logger(),
	}
}

// Create mints and stores a session for the given profile
func (r *SessionRepository) Create(profile Profile, ttl time.Duration) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		Token:     uuid.NewString(),
		UserEmail: strings.ToLower(strings.TrimSpace(profile.Email)),
		Profile:   profile,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session profile: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO sessions (token, user_email, data, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		session.Token, session.UserEmail, string(data), now.Unix(), session.ExpiresAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	r.log.Info().Str("user", session.UserEmail).Msg("Session created")
	return session, nil
}

// Get retrieves a live session by token. Expired or unknown tokens return nil.
func (r *SessionRepository) Get(token string) (*Session, error) {
	var s Session
	var data sql.NullString
	var createdAt, expiresAt int64

	err := r.db.QueryRow(
		"SELECT token, user_email, data, created_at, expires_at FROM sessions WHERE token = ?",
		token,
	).Scan(&s.Token, &s.UserEmail, &data, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	if !s.ExpiresAt.After(time.Now().UTC()) {
		return nil, nil
	}

	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &s.Profile); err != nil {
			r.log.Warn().Err(err).Str("token", token).Msg("Failed to unmarshal session profile")
		}
	}
	if s.Profile.Email == "" {
		s.Profile.Email = s.UserEmail
	}

	return &s, nil
}

// Delete removes a session. Unknown tokens are not an error.
func (r *SessionRepository) Delete(token string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions past their expiry. Returns the purge count.
func (r *SessionRepository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
