package cryptox

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			// Verify PHC format
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"),
				"hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Contains(t, parts[3], "m=")
			require.Contains(t, parts[3], "t=")
			require.Contains(t, parts[3], "p=")
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	password := "samepassword"

	hash1, err := HashPassword(password)
	require.NoError(t, err)
	hash2, err := HashPassword(password)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	require.ErrorIs(t, VerifyPassword("incorrect", hash), ErrMismatch)
	require.ErrorIs(t, VerifyPassword("", hash), ErrMismatch)
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	// Records provisioned before the argon2id migration carry bcrypt
	// hashes and must keep verifying.
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, VerifyPassword("old-password", string(legacy)))
	require.ErrorIs(t, VerifyPassword("wrong", string(legacy)), ErrMismatch)
}

func TestVerifyPassword_UnknownScheme(t *testing.T) {
	require.ErrorIs(t, VerifyPassword("x", "plaintext-not-a-hash"), ErrUnknownScheme)
	require.ErrorIs(t, VerifyPassword("x", "$md5$whatever"), ErrUnknownScheme)
}

func TestVerifyPassword_MalformedPHC(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"too few parts", "$argon2id$v=19$m=19456,t=2,p=1$saltonly"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{"bad parameters", "$argon2id$v=19$m=x,t=y,p=z$c2FsdHNhbHQ$aGFzaGhhc2g"},
		{"bad salt encoding", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaGhhc2g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, VerifyPassword("password", tt.hash))
		})
	}
}

func TestDummyVerify(t *testing.T) {
	require.ErrorIs(t, DummyVerify("anything"), ErrMismatch)
	require.ErrorIs(t, DummyVerify(""), ErrMismatch)
}

func TestDummyVerify_TimingComparable(t *testing.T) {
	if testing.Short() {
		t.Skip("timing measurement")
	}

	hash, err := HashPassword("known-user-password")
	require.NoError(t, err)

	// Warm up once so first-use costs don't skew the measurement.
	_ = VerifyPassword("wrong", hash)
	_ = DummyVerify("wrong")

	const rounds = 5
	var real, dummy time.Duration
	for range rounds {
		start := time.Now()
		_ = VerifyPassword("wrong", hash)
		real += time.Since(start)

		start = time.Now()
		_ = DummyVerify("wrong")
		dummy += time.Since(start)
	}

	// Both paths burn a full argon2id computation; allow a generous
	// margin since CI machines are noisy.
	ratio := float64(real) / float64(dummy)
	require.Greater(t, ratio, 0.2, "dummy verify should not be much slower than real verify")
	require.Less(t, ratio, 5.0, "real verify should not be much slower than dummy verify")
}
