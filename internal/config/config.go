// Package config loads the server configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config holds the configuration for the weighttrack server.
type Config struct {
	// Listen is the address the HTTP server listens on.
	Listen string `mapstructure:"listen"`
	// DataDir is the root of the document layout and of the legacy files.
	DataDir string `mapstructure:"data_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"log_format"`

	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// StorageConfig selects and tunes the document store.
type StorageConfig struct {
	// Backend is file, sqlite or badger.
	Backend string `mapstructure:"backend"`
	// SQLitePath defaults to <data_dir>/weighttrack.db.
	SQLitePath string `mapstructure:"sqlite_path"`
	// BadgerPath defaults to <data_dir>/badger.
	BadgerPath string `mapstructure:"badger_path"`
	// CacheTTL enables the read cache when positive.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AuthConfig holds session and API key settings.
type AuthConfig struct {
	// APIKey, when set, authenticates requests as APIKeyUser.
	APIKey     string `mapstructure:"api_key"`
	APIKeyUser string `mapstructure:"api_key_user"`
	// SessionSecret signs session cookies. A random secret is used when empty.
	SessionSecret string        `mapstructure:"session_secret"`
	SessionMaxAge time.Duration `mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie Secure. Enable behind TLS.
	SecureCookies bool `mapstructure:"secure_cookies"`
}

// Load reads the configuration from path, or from the default search paths
// when path is empty. A missing config file is not an error.
// Environment variables prefixed with WEIGHTTRACK_ override file values;
// CONFIG_PATH, API_KEY and LOG_LEVEL are honored as well.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("WEIGHTTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.weighttrack")
		v.AddConfigPath("/etc/weighttrack")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		slog.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.applyDerived()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// legacyEnv lists the unprefixed variables older deployments set.
// The prefixed name comes first so it wins.
var legacyEnv = map[string][]string{
	"data_dir":     {"WEIGHTTRACK_DATA_DIR", "CONFIG_PATH"},
	"auth.api_key": {"WEIGHTTRACK_AUTH_API_KEY", "API_KEY"},
	"log_level":    {"WEIGHTTRACK_LOG_LEVEL", "LOG_LEVEL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("data_dir", "/config")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("storage.badger_path", "")
	v.SetDefault("storage.cache_ttl", "0s")

	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.api_key_user", "admin")
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.session_max_age", "168h") // 7 days
	v.SetDefault("auth.secure_cookies", false)
}

func (c *Config) applyDerived() {
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = filepath.Join(c.DataDir, "weighttrack.db")
	}
	if c.Storage.BadgerPath == "" {
		c.Storage.BadgerPath = filepath.Join(c.DataDir, "badger")
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("unknown storage backend %q (want file, sqlite or badger)", c.Storage.Backend)
	}
	if c.Storage.CacheTTL < 0 {
		return fmt.Errorf("storage.cache_ttl must not be negative")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.Auth.SessionMaxAge <= 0 {
		return fmt.Errorf("auth.session_max_age must be positive")
	}
	if c.Auth.APIKey != "" && c.Auth.APIKeyUser == "" {
		return fmt.Errorf("auth.api_key_user is required when an API key is set")
	}
	return nil
}
