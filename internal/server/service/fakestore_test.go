package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/hellomouse/pinboard-server/internal/server/domain"
	"github.com/hellomouse/pinboard-server/internal/server/store"
)

// fakeStore is an in-memory store.Store for service tests. Set failWith
// to simulate a storage fault on every call.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]domain.User // keyed by id
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]domain.User)}
}

func (f *fakeStore) Users() store.Users             { return (*fakeUsers)(f) }
func (f *fakeStore) ApplyMigrations() error         { return nil }
func (f *fakeStore) Close() error                   { return nil }
func (f *fakeStore) Ping(ctx context.Context) error { return f.failWith }

type fakeUsers fakeStore

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return domain.User{}, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return domain.User{}, f.failWith
	}
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (f *fakeUsers) CreateUser(ctx context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return store.ErrAlreadyExists
		}
	}
	if len(u.Settings) == 0 {
		u.Settings = json.RawMessage(`{}`)
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[userID]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUsers) SearchUsers(ctx context.Context, filter string) ([]domain.UserSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var results []domain.UserSearchResult
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(filter)) ||
			strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter)) {
			results = append(results, domain.UserSearchResult{ID: u.ID, Name: u.Name, PfpURL: u.PfpURL})
		}
	}
	return results, nil
}

func (f *fakeUsers) UpdateSettings(ctx context.Context, userID string, settings json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Settings = settings
	f.users[userID] = u
	return nil
}
