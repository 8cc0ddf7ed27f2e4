// Package storage provides the pipeline's storage gateway: a uniform SQL
// surface over an embedded local store (SQLite) and a cloud warehouse
// (PostgreSQL). Both backends accept the same query subset ($N placeholders,
// ON CONFLICT upserts, unix-millisecond BIGINT timestamps), so domain
// repositories never branch on backend identity.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Backend identifies a storage backend implementation.
type Backend string

const (
	BackendSqlite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Gateway exposes the shared database handle and schema management.
type Gateway interface {
	// DB returns the underlying connection pool.
	DB() *sql.DB
	// Backend reports which backend this gateway was opened against.
	Backend() Backend
	// Migrate applies any pending schema migrations.
	Migrate(ctx context.Context) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the connection pool.
	Close() error
}

type gateway struct {
	conn    *sql.DB
	backend Backend
	logger  *slog.Logger
}

// Open creates a gateway for the configured backend. It validates the DSN and
// configures pool parameters but does not touch the backend until Ping or the
// first query.
func Open(cfg *Config, logger *slog.Logger) (Gateway, error) {
	switch cfg.BackendType() {
	case BackendSqlite:
		return openSqlite(cfg, logger)
	case BackendPostgres:
		return openPostgres(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func openSqlite(cfg *Config, logger *slog.Logger) (Gateway, error) {
	if dir := filepath.Dir(cfg.Sqlite.Path); dir != "." && dir != "" && cfg.Sqlite.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Sqlite.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection serializes writes and keeps :memory: databases
	// coherent across the pool.
	db.SetMaxOpenConns(1)

	return &gateway{
		conn:    db,
		backend: BackendSqlite,
		logger:  logger.With("system", "storage", "backend", BackendSqlite),
	}, nil
}

func openPostgres(cfg *Config, logger *slog.Logger) (Gateway, error) {
	db, err := sql.Open("pgx", cfg.Postgres.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetimeDuration())

	return &gateway{
		conn:    db,
		backend: BackendPostgres,
		logger:  logger.With("system", "storage", "backend", BackendPostgres),
	}, nil
}

func (g *gateway) DB() *sql.DB {
	return g.conn
}

func (g *gateway) Backend() Backend {
	return g.backend
}

func (g *gateway) Ping(ctx context.Context) error {
	if err := g.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (g *gateway) Close() error {
	g.logger.Info("closing storage gateway")
	return g.conn.Close()
}
