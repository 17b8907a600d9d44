package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotAuthorized is returned when a valid Google identity is not on the
// allowlist. There is no registration flow; unlisted emails are refused.
var ErrNotAuthorized = fmt.Errorf("email is not authorized")

// Authorizer decides whether an email may use the application
type Authorizer interface {
	IsAuthorized(email string) bool
}

// identityExchanger trades an authorization code for a profile
type identityExchanger interface {
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Service implements the sign-in flow: code exchange, allowlist check,
// session issuance.
type Service struct {
	google     identityExchanger
	sessions   *SessionRepository
	authorizer Authorizer
	sessionTTL time.Duration
	log        zerolog.Logger
}

// NewService creates a new auth service
func NewService(google identityExchanger, sessions *SessionRepository, authorizer Authorizer, sessionTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		google:     google,
		sessions:   sessions,
		authorizer: authorizer,
		sessionTTL: sessionTTL,
		log:        log.With().Str("service", "auth").Logger(),
	}
}

// Login exchanges a Google authorization code and issues a session when the
// identity is on the allowlist
func (s *Service) Login(ctx context.Context, code string) (*Session, error) {
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}

	if !s.authorizer.IsAuthorized(profile.Email) {
		s.log.Warn().Str("email", profile.Email).Msg("Sign-in refused, not on allowlist")
		return nil, ErrNotAuthorized
	}

	session, err := s.sessions.Create(*profile, s.sessionTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", profile.Email).Msg("User signed in")
	return session, nil
}

// SessionFor resolves a live session by token. Returns nil when unknown or
// expired, or when the email has since been removed from the allowlist.
func (s *Service) SessionFor(token string) (*Session, error) {
	session, err := s.sessions.Get(token)
	if err != nil || session == nil {
		return session, err
	}
	if !s.authorizer.IsAuthorized(session.UserEmail) {
		s.log.Warn().Str("email", session.UserEmail).Msg("Session revoked, no longer on allowlist")
		_ = s.sessions.Delete(session.Token)
		return nil, nil
	}
	return session, nil
}

// Logout invalidates a session token
func (s *Service) Logout(token string) error {
	return s.sessions.Delete(token)
}

// PurgeExpired removes dead sessions; wired to the maintenance scheduler
func (s *Service) PurgeExpired() (int64, error) {
	deleted, err := s.sessions.DeleteExpired()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("Expired sessions purged")
	}
	return deleted, nil
}
