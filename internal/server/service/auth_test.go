package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hellomouse/pinboard-server/internal/server/session"
	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) (*AuthService, *fakeStore) {
	t.Helper()

	sessions, err := session.NewManager(time.Hour)
	require.NoError(t, err)

	st := newFakeStore()
	svc := &AuthService{
		Store:    st,
		Tracker:  NewLoginAttemptTracker(10*time.Minute, 10),
		Sessions: sessions,
		Policy:   PasswordPolicy{MinLength: 10, MaxLength: 128},
	}
	return svc, st
}

func provision(t *testing.T, svc *AuthService, username, password string) {
	t.Helper()
	_, err := svc.CreateAccount(context.Background(), username, "Test User", password)
	require.NoError(t, err)
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)
	provision(t, svc, "alice", "correct horse battery")

	token, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := svc.Sessions.Validate(token)
	require.NoError(t, err)

	user, err := svc.Store.Users().GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, user.ID, identity, "session binds to the stored identity")
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	provision(t, svc, "alice", "correct horse battery")

	_, err := svc.Login(context.Background(), "alice", "wrong password here")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "nobody", "any password at all")
	require.ErrorIs(t, err, ErrUnauthorized,
		"unknown user must be indistinguishable from wrong password")
}

func TestLogin_UsernameCanonicalization(t *testing.T) {
	svc, _ := newTestAuthService(t)
	provision(t, svc, "Alice", "correct horse battery")

	token, err := svc.Login(context.Background(), "  ALICE  ", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestLogin_LockoutBlocksCorrectPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	provision(t, svc, "alice", "correct horse battery")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.Tracker.now = func() time.Time { return now }

	for range 10 {
		_, err := svc.Login(context.Background(), "alice", "wrong password here")
		require.ErrorIs(t, err, ErrUnauthorized)
	}

	// The eleventh attempt is refused even with the correct password,
	// with the same generic error as a bad one.
	_, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.ErrorIs(t, err, ErrUnauthorized)

	// After the window fully elapses the correct password works again.
	now = now.Add(10*time.Minute + time.Second)
	token, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestLogin_LockoutKeyedPerIdentity(t *testing.T) {
	svc, _ := newTestAuthService(t)
	provision(t, svc, "alice", "correct horse battery")
	provision(t, svc, "bob", "another fine password")

	for range 10 {
		_, _ = svc.Login(context.Background(), "alice", "wrong password here")
	}

	_, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.ErrorIs(t, err, ErrUnauthorized)

	token, err := svc.Login(context.Background(), "bob", "another fine password")
	require.NoError(t, err, "other identities are unaffected by alice's lockout")
	require.NotEmpty(t, token)
}

func TestLogin_StorageFaultFailsClosed(t *testing.T) {
	svc, st := newTestAuthService(t)
	provision(t, svc, "alice", "correct horse battery")
	st.failWith = errors.New("connection refused")

	_, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized,
		"storage faults surface as server errors, not policy rejections")
}

func TestCreateAccount_PasswordPolicy(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "alice", "Alice", "short")
	require.ErrorIs(t, err, ErrPasswordPolicy)

	_, err = svc.CreateAccount(ctx, "alice", "Alice", strings.Repeat("x", 129))
	require.ErrorIs(t, err, ErrPasswordPolicy)

	user, err := svc.CreateAccount(ctx, "alice", "Alice", "long enough password")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "long enough password", user.PasswordHash)
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "alice", "Alice", "long enough password")
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, "alice", "Alice Again", "long enough password")
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestDeleteAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	provision(t, svc, "alice", "correct horse battery")

	require.NoError(t, svc.DeleteAccount(ctx, "alice"))

	_, err := svc.Login(ctx, "alice", "correct horse battery")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.ErrorIs(t, svc.DeleteAccount(ctx, "alice"), store.ErrNotFound)
}
