package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBrokenConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"empty cookie name", func(c *Config) { c.Server.LoginCookieName = "" }},
		{"zero cookie ttl", func(c *Config) { c.Server.LoginCookieValidDurationSeconds = 0 }},
		{"zero quota", func(c *Config) { c.Server.RequestQuota = 0 }},
		{"zero replenish", func(c *Config) { c.Server.RequestQuotaReplenishMs = 0 }},
		{"zero attempt window", func(c *Config) { c.Server.LoginAttemptWindowSeconds = 0 }},
		{"zero attempt threshold", func(c *Config) { c.Server.LoginMaxAttemptsPerWindow = 0 }},
		{"password min > max", func(c *Config) {
			c.Server.PasswordMinLength = 20
			c.Server.PasswordMaxLength = 10
		}},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"sqlite without file", func(c *Config) {
			c.Database.Driver = "sqlite"
			c.Database.File = ""
		}},
		{"postgres without credentials", func(c *Config) {
			c.Database.Driver = "postgres"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
driver = "postgres"
ip     = "db.internal"
port   = 5432
user   = "pinboard"
name   = "pinboard"

[server]
port          = 9000
request_quota = 25
`), 0o600))

	t.Setenv("PINBOARD_CONFIG_FILE", path)
	t.Setenv("PINBOARD_DB_PASSWORD", "hunter2hunter2")
	t.Setenv("PORT", "9100")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.internal", cfg.Database.IP)
	require.Equal(t, "hunter2hunter2", cfg.Database.Password, "password comes from the environment")
	require.Equal(t, 9100, cfg.Server.Port, "PORT env wins over the file")
	require.Equal(t, 25, cfg.Server.RequestQuota)
	require.Equal(t, 30*time.Second, cfg.ShutdownGracePeriod)

	// File values not set fall back to defaults.
	require.Equal(t, "login", cfg.Server.LoginCookieName)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL())
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	t.Setenv("PINBOARD_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.toml"))

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("PINBOARD_CONFIG_FILE", "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 8080, cfg.Server.Port)
}
