package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hellomouse/pinboard-server/internal/server/domain"
	"github.com/hellomouse/pinboard-server/internal/server/session"
	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/hellomouse/pinboard-server/pkg/cryptox"
	"github.com/hellomouse/pinboard-server/pkg/idx"
	"github.com/hellomouse/pinboard-server/pkg/slogx"
)

var (
	// ErrUnauthorized covers every login policy rejection: wrong
	// password, unknown user, and lockout. Handlers must surface it as
	// one generic response so a caller cannot probe which case applied.
	ErrUnauthorized = errors.New("service: unauthorized")

	// ErrPasswordPolicy reports a password outside the configured length
	// bounds at credential creation time.
	ErrPasswordPolicy = errors.New("service: password violates length policy")
)

// PasswordPolicy bounds password length in characters, enforced only
// when credentials are created, never at verification.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// Check validates a candidate password against the policy.
func (p PasswordPolicy) Check(password string) error {
	n := utf8.RuneCountInString(password)
	if n < p.MinLength || n > p.MaxLength {
		return fmt.Errorf("%w: must be %d-%d characters", ErrPasswordPolicy, p.MinLength, p.MaxLength)
	}
	return nil
}

// AuthService is the credential side of the access-control core: it
// verifies username/password pairs against stored records, applies the
// lockout policy around every verification, and hands successful logins
// to the session manager.
type AuthService struct {
	Store    store.Store
	Tracker  *LoginAttemptTracker
	Sessions *session.Manager
	Policy   PasswordPolicy
}

// Login authenticates a username/password pair and returns a session
// token on success.
//
// Ordering is part of the contract: the lockout check runs before the
// credential verifier so a locked identity burns no hash work, and a
// lockout produces the same ErrUnauthorized as a bad password. Unknown
// usernames burn a dummy hash comparison so their latency matches a
// known-user mismatch. Storage faults are returned as-is, never as
// ErrUnauthorized, and never allow a login.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	log := slogx.FromContext(ctx)
	key := AttemptKey(username)

	if s.Tracker.IsLockedOut(key) {
		log.Warn("login rejected: identity locked out", "key", key)
		return "", ErrUnauthorized
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Equalize timing with the known-user path.
			_ = cryptox.DummyVerify(password)
			s.Tracker.Record(key, false)
			return "", ErrUnauthorized
		}
		// Fail closed on storage faults: deny without recording, since
		// nothing was proven about the credentials either way.
		return "", fmt.Errorf("credential lookup: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		s.Tracker.Record(key, false)
		return "", ErrUnauthorized
	}
	s.Tracker.Record(key, true)

	token, err := s.Sessions.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}

	log.Info("login succeeded", "user_id", user.ID)
	return token, nil
}

// CreateAccount provisions a new credential record. The password length
// policy applies here and only here.
func (s *AuthService) CreateAccount(ctx context.Context, username, name, password string) (domain.User, error) {
	username = AttemptKey(username)
	if username == "" || name == "" {
		return domain.User{}, errors.New("service: username and name are required")
	}
	if err := s.Policy.Check(password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// DeleteAccount removes the credential record for username.
func (s *AuthService) DeleteAccount(ctx context.Context, username string) error {
	user, err := s.Store.Users().GetUserByUsername(ctx, AttemptKey(username))
	if err != nil {
		return err
	}
	return s.Store.Users().DeleteUser(ctx, user.ID)
}

// AttemptKey canonicalizes a username for attempt tracking and lookup.
// Attempts are keyed by identity rather than origin: the per-IP request
// limiter already throttles cross-account enumeration from one origin,
// while an identity key stops a distributed guesser from resetting its
// budget by rotating addresses.
func AttemptKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
