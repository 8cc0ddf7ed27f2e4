package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/burnwatch/burnwatch/internal/config"
)

const baseConfig = `
anonymize_salt = "test-salt"
version = "1.2.3"

[storage]
backend = "sqlite"

[storage.sqlite]
path = "data/test.db"

[scoring]
provider = "lexicon"

[features]
window_days = [7, 30]
min_records = 3

[predictions]
min_train_samples = 20

[predictions.bands]
medium = 0.5
high = 0.8

[[alerts.rules]]
id = "high-risk"
min_band = "high"
cooldown = "48h"
channels = ["console"]
`

const overlayConfig = `
version = "2.0.0"

[storage]
backend = "postgres"

[storage.postgres]
host = "db.staging.internal"
name = "burnwatch"
user = "burnwatch"
password = "secret"
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Version != "1.2.3" {
		t.Errorf("version = %s, want 1.2.3", cfg.Version)
	}
	if cfg.AnonymizeSalt != "test-salt" {
		t.Errorf("salt = %s, want test-salt", cfg.AnonymizeSalt)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend = %s, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Predictions.MinTrainSamples != 20 {
		t.Errorf("min_train_samples = %d, want 20", cfg.Predictions.MinTrainSamples)
	}
	if cfg.Predictions.Bands.High != 0.8 {
		t.Errorf("high band cut = %.2f, want 0.8", cfg.Predictions.Bands.High)
	}
	if len(cfg.Alerts.Rules) != 1 || cfg.Alerts.Rules[0].Cooldown != "48h" {
		t.Errorf("alert rules = %+v, want one rule with 48h cooldown", cfg.Alerts.Rules)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("default backend = %s, want sqlite", cfg.Storage.Backend)
	}
	if len(cfg.Features.WindowDays) == 0 {
		t.Error("default window days empty")
	}
	if cfg.Scoring.Provider != "lexicon" {
		t.Errorf("default provider = %s, want lexicon", cfg.Scoring.Provider)
	}
	if len(cfg.Alerts.Rules) != 1 {
		t.Errorf("default alert rules = %d, want 1", len(cfg.Alerts.Rules))
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv("BURNWATCH_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version = %s, want overlay 2.0.0", cfg.Version)
	}
	if cfg.Storage.Backend != "postgres" {
		t.Errorf("backend = %s, want overlay postgres", cfg.Storage.Backend)
	}
	if cfg.Storage.Postgres.Host != "db.staging.internal" {
		t.Errorf("host = %s, want db.staging.internal", cfg.Storage.Postgres.Host)
	}
	// Base values not named in the overlay survive.
	if cfg.AnonymizeSalt != "test-salt" {
		t.Errorf("salt = %s, want test-salt from base", cfg.AnonymizeSalt)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BURNWATCH_ANONYMIZE_SALT", "env-salt")
	t.Setenv("BURNWATCH_DB_BACKEND", "postgres")
	t.Setenv("BURNWATCH_DB_HOST", "env-host")
	t.Setenv("BURNWATCH_DB_NAME", "burnwatch")
	t.Setenv("BURNWATCH_DB_USER", "burnwatch")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AnonymizeSalt != "env-salt" {
		t.Errorf("salt = %s, want env-salt", cfg.AnonymizeSalt)
	}
	if cfg.Storage.Backend != "postgres" {
		t.Errorf("backend = %s, want postgres", cfg.Storage.Backend)
	}
	if cfg.Storage.Postgres.Host != "env-host" {
		t.Errorf("host = %s, want env-host", cfg.Storage.Postgres.Host)
	}
}
