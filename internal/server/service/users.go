package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hellomouse/pinboard-server/internal/server/domain"
	"github.com/hellomouse/pinboard-server/internal/server/store"
)

// UserService serves the profile and settings reads behind the facade.
type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// SearchUsers returns users matching the filter substring.
func (s *UserService) SearchUsers(ctx context.Context, filter string) ([]domain.UserSearchResult, error) {
	return s.Store.Users().SearchUsers(ctx, filter)
}

// GetSettings returns the stored settings blob for a user.
func (s *UserService) GetSettings(ctx context.Context, userID string) (json.RawMessage, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Settings, nil
}

// UpdateSettings merges a patch into the user's stored settings and
// persists the result. Nested objects merge recursively; any other
// value in the patch replaces the stored one.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, patch json.RawMessage) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	merged, err := mergeJSON(user.Settings, patch)
	if err != nil {
		return fmt.Errorf("merge settings: %w", err)
	}

	return s.Store.Users().UpdateSettings(ctx, userID, merged)
}

func mergeJSON(base, patch json.RawMessage) (json.RawMessage, error) {
	var baseMap, patchMap map[string]any

	if len(base) == 0 {
		base = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(base, &baseMap); err != nil {
		// A corrupt stored blob should not brick settings updates.
		baseMap = map[string]any{}
	}
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		return nil, err
	}

	return json.Marshal(mergeMaps(baseMap, patchMap))
}

func mergeMaps(base, patch map[string]any) map[string]any {
	for k, v := range patch {
		pv, okP := v.(map[string]any)
		bv, okB := base[k].(map[string]any)
		if okP && okB {
			base[k] = mergeMaps(bv, pv)
			continue
		}
		base[k] = v
	}
	return base
}
