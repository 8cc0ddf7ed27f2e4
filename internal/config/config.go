// Package config loads the root burnwatch configuration from config.toml,
// applies an environment-specific overlay, and finalizes every sub-config
// with defaults, environment variables, and validation.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/burnwatch/burnwatch/internal/alerts"
	"github.com/burnwatch/burnwatch/internal/features"
	"github.com/burnwatch/burnwatch/internal/predictions"
	"github.com/burnwatch/burnwatch/internal/scoring"
	"github.com/burnwatch/burnwatch/pkg/blobstore"
	"github.com/burnwatch/burnwatch/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvBurnwatchEnv     = "BURNWATCH_ENV"
	EnvBurnwatchSalt    = "BURNWATCH_ANONYMIZE_SALT"
	EnvBurnwatchVersion = "BURNWATCH_VERSION"
)

var storageEnv = &storage.Env{
	Backend:    "BURNWATCH_DB_BACKEND",
	SqlitePath: "BURNWATCH_DB_SQLITE_PATH",
	PgHost:     "BURNWATCH_DB_HOST",
	PgPort:     "BURNWATCH_DB_PORT",
	PgName:     "BURNWATCH_DB_NAME",
	PgUser:     "BURNWATCH_DB_USER",
	PgPassword: "BURNWATCH_DB_PASSWORD",
	PgSSLMode:  "BURNWATCH_DB_SSL_MODE",
}

var blobstoreEnv = &blobstore.Env{
	ContainerName:    "BURNWATCH_ARCHIVE_CONTAINER_NAME",
	ConnectionString: "BURNWATCH_ARCHIVE_CONNECTION_STRING",
}

var scoringEnv = &scoring.Env{
	Provider:     "BURNWATCH_SCORING_PROVIDER",
	OpenAIAPIKey: "BURNWATCH_OPENAI_API_KEY",
	OpenAIModel:  "BURNWATCH_OPENAI_MODEL",
}

var alertsEnv = &alerts.Env{
	TelegramToken: "BURNWATCH_TELEGRAM_TOKEN",
	WebhookURL:    "BURNWATCH_WEBHOOK_URL",
}

// Config is the root configuration for the burnwatch pipeline.
type Config struct {
	Storage     storage.Config     `toml:"storage"`
	Archive     blobstore.Config   `toml:"archive"`
	Scoring     scoring.Config     `toml:"scoring"`
	Features    features.Config    `toml:"features"`
	Predictions predictions.Config `toml:"predictions"`
	Alerts      alerts.Config      `toml:"alerts"`
	// AnonymizeSalt feeds identity hashing. It must stay stable across runs
	// or users fragment into multiple identities.
	AnonymizeSalt string `toml:"anonymize_salt"`
	Version       string `toml:"version"`
}

// Env returns the BURNWATCH_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvBurnwatchEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.AnonymizeSalt != "" {
		c.AnonymizeSalt = overlay.AnonymizeSalt
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Storage.Merge(&overlay.Storage)
	c.Archive.Merge(&overlay.Archive)
	c.Scoring.Merge(&overlay.Scoring)
	c.Features.Merge(&overlay.Features)
	c.Predictions.Merge(&overlay.Predictions)
	c.Alerts.Merge(&overlay.Alerts)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Archive.Finalize(blobstoreEnv); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := c.Scoring.Finalize(scoringEnv); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Features.Finalize(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if err := c.Predictions.Finalize(); err != nil {
		return fmt.Errorf("predictions: %w", err)
	}
	if err := c.Alerts.Finalize(alertsEnv); err != nil {
		return fmt.Errorf("alerts: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.AnonymizeSalt == "" {
		c.AnonymizeSalt = "burnwatch-local"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvBurnwatchSalt); v != "" {
		c.AnonymizeSalt = v
	}
	if v := os.Getenv(EnvBurnwatchVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if c.AnonymizeSalt == "" {
		return fmt.Errorf("anonymize_salt must not be empty")
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvBurnwatchEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
