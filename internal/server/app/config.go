package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// DatabaseConfig selects and parameterizes the store driver.
type DatabaseConfig struct {
	Driver   string `toml:"driver"`   // "sqlite" or "postgres"
	File     string `toml:"file"`     // sqlite database file
	IP       string `toml:"ip"`       // postgres host
	Port     int    `toml:"port"`     // postgres port
	User     string `toml:"user"`     // postgres user
	Password string `toml:"password"` // postgres password
	Name     string `toml:"name"`     // postgres database name
}

// ServerConfig carries the HTTP and access-control knobs.
type ServerConfig struct {
	Port                            int    `toml:"port"`
	LoginCookieName                 string `toml:"login_cookie_name"`
	LoginCookieSecure               bool   `toml:"login_cookie_secure"`
	LoginCookieValidDurationSeconds int    `toml:"login_cookie_valid_duration_seconds"`
	RequestQuota                    int    `toml:"request_quota"`
	RequestQuotaReplenishMs         int    `toml:"request_quota_replenish_ms"`
	LoginAttemptWindowSeconds       int    `toml:"login_attempt_window_seconds"`
	LoginMaxAttemptsPerWindow       int    `toml:"login_max_attempts_per_window"`
	PasswordMinLength               int    `toml:"password_min_length"`
	PasswordMaxLength               int    `toml:"password_max_length"`
}

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`

	Env                  string        `toml:"-"` // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `toml:"-"` // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `toml:"-"` // Log format (json, text) (default: json)
	ShutdownGracePeriod  time.Duration `toml:"-"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `toml:"-"` // Housekeeping interval (default: 1h)
}

// SessionTTL is the session cookie lifetime.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Server.LoginCookieValidDurationSeconds) * time.Second
}

// ReplenishInterval is how long one rate-limit token takes to come back.
func (c Config) ReplenishInterval() time.Duration {
	return time.Duration(c.Server.RequestQuotaReplenishMs) * time.Millisecond
}

// AttemptWindow is the sliding window for counting failed logins.
func (c Config) AttemptWindow() time.Duration {
	return time.Duration(c.Server.LoginAttemptWindowSeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			File:   "pinboard.db",
			IP:     "127.0.0.1",
			Port:   5432,
		},
		Server: ServerConfig{
			Port:                            8080,
			LoginCookieName:                 "login",
			LoginCookieSecure:               false,
			LoginCookieValidDurationSeconds: 86400,
			RequestQuota:                    10,
			RequestQuotaReplenishMs:         500,
			LoginAttemptWindowSeconds:       600,
			LoginMaxAttemptsPerWindow:       10,
			PasswordMinLength:               10,
			PasswordMaxLength:               128,
		},
	}
}

// LoadConfig reads config.toml (path overridable via PINBOARD_CONFIG_FILE),
// applies environment overrides, and validates the result. A missing
// default config file falls back to defaults; an explicitly requested
// file that cannot be read is an error.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	path := os.Getenv("PINBOARD_CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = "config.toml"
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if pw := os.Getenv("PINBOARD_DB_PASSWORD"); pw != "" {
		cfg.Database.Password = pw
	}
	cfg.Server.Port = getEnvIntOrDefault("PORT", cfg.Server.Port)
	cfg.Env = getEnvOrDefault("ENV", "dev")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", "json")
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would weaken or break the
// access-control layer. Callers treat any error here as fatal.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	if c.Server.LoginCookieName == "" {
		return errors.New("config: login_cookie_name must not be empty")
	}
	if c.Server.LoginCookieValidDurationSeconds <= 0 {
		return errors.New("config: login_cookie_valid_duration_seconds must be positive")
	}
	if c.Server.RequestQuota <= 0 {
		return errors.New("config: request_quota must be positive")
	}
	if c.Server.RequestQuotaReplenishMs <= 0 {
		return errors.New("config: request_quota_replenish_ms must be positive")
	}
	if c.Server.LoginAttemptWindowSeconds <= 0 {
		return errors.New("config: login_attempt_window_seconds must be positive")
	}
	if c.Server.LoginMaxAttemptsPerWindow <= 0 {
		return errors.New("config: login_max_attempts_per_window must be positive")
	}
	if c.Server.PasswordMinLength <= 0 {
		return errors.New("config: password_min_length must be positive")
	}
	if c.Server.PasswordMaxLength < c.Server.PasswordMinLength {
		return errors.New("config: password_max_length must be >= password_min_length")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.File == "" {
			return errors.New("config: database file must be set for sqlite")
		}
	case "postgres":
		if c.Database.User == "" || c.Database.Password == "" || c.Database.Name == "" {
			return errors.New("config: postgres requires user, password and name")
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
