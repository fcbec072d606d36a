package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hellomouse/pinboard-server/internal/server/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Credential records are only read by the
// server; they are created and deleted by provisioning tooling.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by provisioning via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// DeleteUser removes a user record.
	DeleteUser(ctx context.Context, userID string) error

	// SearchUsers returns users whose username or display name contains
	// the filter, case-insensitively.
	SearchUsers(ctx context.Context, filter string) ([]domain.UserSearchResult, error)

	// UpdateSettings replaces the settings blob and bumps updated_at.
	// Merging with existing settings is the service's concern.
	UpdateSettings(ctx context.Context, userID string, settings json.RawMessage) error
}
