package storage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/burnwatch/burnwatch/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sqliteConfig(t *testing.T) *storage.Config {
	t.Helper()
	cfg := &storage.Config{
		Backend: "sqlite",
		Sqlite: storage.SqliteConfig{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}
	return cfg
}

func TestOpenSqlite(t *testing.T) {
	gw, err := storage.Open(sqliteConfig(t), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer gw.Close()

	if gw.Backend() != storage.BackendSqlite {
		t.Errorf("backend = %s, want %s", gw.Backend(), storage.BackendSqlite)
	}

	if err := gw.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Backend = "oracle"

	_, err := storage.Open(cfg, testLogger())
	if !errors.Is(err, storage.ErrUnknownBackend) {
		t.Errorf("open oracle = %v, want ErrUnknownBackend", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	gw, err := storage.Open(sqliteConfig(t), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer gw.Close()

	ctx := context.Background()
	if err := gw.Migrate(ctx); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := gw.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var count int
	err = gw.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_records`).Scan(&count)
	if err != nil {
		t.Fatalf("query migrated table: %v", err)
	}
	if count != 0 {
		t.Errorf("raw_records count = %d, want 0", count)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.BackendType() != storage.BackendSqlite {
		t.Errorf("default backend = %s, want sqlite", cfg.Backend)
	}
	if cfg.Sqlite.Path == "" {
		t.Error("default sqlite path is empty")
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := &storage.Config{Backend: "sqlite"}
	cfg.Merge(&storage.Config{
		Backend: "postgres",
		Postgres: storage.PostgresConfig{
			Host: "db.internal",
			Name: "burnwatch",
		},
	})

	if cfg.Backend != "postgres" {
		t.Errorf("backend = %s, want postgres", cfg.Backend)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("host = %s, want db.internal", cfg.Postgres.Host)
	}
}
