package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the local API server configuration.
type ServerConfig struct {
	Port string `envconfig:"TOOLBAR_PORT" default:"8091"`
	Host string `envconfig:"TOOLBAR_HOST" default:"127.0.0.1"`
}

// StorageConfig locates the persisted workspace documents.
type StorageConfig struct {
	Dir              string        `envconfig:"TOOLBAR_DATA_DIR"`
	DebounceInterval time.Duration `envconfig:"TOOLBAR_WATCH_DEBOUNCE" default:"250ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"TOOLBAR_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"TOOLBAR_LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"TOOLBAR_RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"TOOLBAR_RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"TOOLBAR_RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaultDataDir()
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8091",
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Dir:              defaultDataDir(),
			DebounceInterval: 250 * time.Millisecond,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "toptoolbar")
}
