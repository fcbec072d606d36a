package domain

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string
	Username     string
	Name         string
	PfpURL       string
	Settings     json.RawMessage // merged client preference blob, opaque to the server
	PasswordHash string          // argon2id encoded; legacy records may be bcrypt
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSearchResult is the subset of User exposed by the search endpoint.
type UserSearchResult struct {
	ID     string
	Name   string
	PfpURL string
}
