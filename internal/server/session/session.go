// Package session issues and validates self-contained session tokens.
//
// Tokens are AES-256-GCM sealed JSON claims, so they are both
// confidential and tamper-evident. The sealing key is generated once per
// process and never persisted: restarting the server invalidates every
// outstanding session by design. Because the token itself is the only
// session state, logout is enforced by the client discarding its cookie;
// the server cannot revoke an individual still-valid token early.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hellomouse/pinboard-server/pkg/cryptox"

	"github.com/google/uuid"
)

// ErrInvalid reports a token that failed decryption, authentication,
// parsing, or expiry. Callers get no detail beyond this; validation
// fails closed.
var ErrInvalid = errors.New("session: invalid token")

// Manager issues and validates session tokens for one server process.
type Manager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewManager creates a Manager with a fresh process-lifetime key.
func NewManager(ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		return nil, errors.New("session: ttl must be positive")
	}

	key, err := cryptox.NewSealKey()
	if err != nil {
		return nil, err
	}

	return &Manager{key: key, ttl: ttl, now: time.Now}, nil
}

// claims is the sealed token payload.
type claims struct {
	ID        string `json:"sid"`
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Issue mints a token bound to identity, expiring TTL from now.
// Re-login simply issues a fresh token; the client's cookie jar holds at
// most one session per server.
func (m *Manager) Issue(identity string) (string, error) {
	if identity == "" {
		return "", errors.New("session: empty identity")
	}

	now := m.now()
	payload, err := json.Marshal(claims{
		ID:        uuid.NewString(),
		Subject:   identity,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	})
	if err != nil {
		return "", err
	}

	return cryptox.Seal(m.key, payload)
}

// Validate resolves a token to its identity. Any failure, including a
// token sealed under a previous process's key, yields ErrInvalid and
// never a partial identity.
func (m *Manager) Validate(token string) (string, error) {
	payload, err := cryptox.Open(m.key, token)
	if err != nil {
		return "", ErrInvalid
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return "", ErrInvalid
	}
	if c.Subject == "" || c.ExpiresAt == 0 {
		return "", ErrInvalid
	}
	if !m.now().Before(time.Unix(c.ExpiresAt, 0)) {
		return "", ErrInvalid
	}

	return c.Subject, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }
