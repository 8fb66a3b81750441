// Package config loads the auction house configuration. Values come from an
// optional YAML file, with environment variables layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config holds everything the server binary needs.
type Config struct {
	HTTPAddr        string   `yaml:"http_addr" env:"AUCTION_HTTP_ADDR"`
	DatabaseURL     string   `yaml:"database_url" env:"AUCTION_DATABASE_URL"`
	JWTSecret       string   `yaml:"jwt_secret" env:"AUCTION_JWT_SECRET"`
	LogLevel        string   `yaml:"log_level" env:"AUCTION_LOG_LEVEL"`
	AllowedOrigins  []string `yaml:"allowed_origins" env:"AUCTION_ALLOWED_ORIGINS"`
	EventBufferSize int      `yaml:"event_buffer_size" env:"AUCTION_EVENT_BUFFER_SIZE"`
	ShutdownGraceS  int      `yaml:"shutdown_grace_seconds" env:"AUCTION_SHUTDOWN_GRACE_SECONDS"`
}

// Default returns the configuration used when no file and no environment
// overrides are present. The empty DatabaseURL selects the in-memory store.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		EventBufferSize: 1000,
		ShutdownGraceS:  15,
	}
}

// Load reads config/auction_house.yaml when it exists, then applies
// environment overrides.
func Load() (Config, error) {
	return LoadFromPath(filepath.Join("config", "auction_house.yaml"))
}

// LoadFromPath loads configuration from a specific YAML file. A missing file
// is not an error; the defaults plus environment variables are used instead.
func LoadFromPath(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// fall through to env overrides
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the application relies on.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.EventBufferSize <= 0 {
		return fmt.Errorf("event_buffer_size must be positive, got %d", c.EventBufferSize)
	}
	if c.ShutdownGraceS <= 0 {
		return fmt.Errorf("shutdown_grace_seconds must be positive, got %d", c.ShutdownGraceS)
	}
	return nil
}
