// Package config loads biscuit's configuration: defaults first, then
// an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/artpar/biscuit/internal/jar"
)

// Config holds the jar and storage configuration.
type Config struct {
	// Backend selects the record engine: sqlite, memory, or redis.
	Backend string `yaml:"backend" env:"BISCUIT_BACKEND"`

	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path" env:"BISCUIT_DB_PATH"`

	// RedisURL connects the redis backend, e.g. redis://localhost:6379/0.
	RedisURL string `yaml:"redis_url" env:"BISCUIT_REDIS_URL"`

	// RedisPrefix namespaces the redis keys.
	RedisPrefix string `yaml:"redis_prefix" env:"BISCUIT_REDIS_PREFIX"`

	// MaxCookies caps the stored records.
	MaxCookies int `yaml:"max_cookies" env:"BISCUIT_MAX_COOKIES"`

	// Hysteresis is the overshoot tolerated before trimming.
	Hysteresis int `yaml:"hysteresis" env:"BISCUIT_HYSTERESIS"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level" env:"BISCUIT_LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	configDir, _ := os.UserConfigDir()

	return Config{
		Backend:     "sqlite",
		DBPath:      filepath.Join(configDir, "biscuit", "cookies.db"),
		RedisPrefix: "biscuit:cookies",
		MaxCookies:  jar.DefaultMaxCookies,
		Hysteresis:  jar.DefaultHysteresis,
		LogLevel:    "info",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	configDir, _ := os.UserConfigDir()
	return filepath.Join(configDir, "biscuit", "config.yaml")
}

// Load builds the configuration. A missing file is fine; a file that
// exists but does not parse is not.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Level maps the configured log level to slog.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
