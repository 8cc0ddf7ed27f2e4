package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies all pending up migrations against the open backend.
// It is safe to call on every startup; an up-to-date schema is a no-op.
func (g *gateway) Migrate(ctx context.Context) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	var driver database.Driver
	switch g.backend {
	case BackendSqlite:
		driver, err = migratesqlite.WithInstance(g.conn, &migratesqlite.Config{})
	case BackendPostgres:
		driver, err = migratepgx.WithInstance(g.conn, &migratepgx.Config{})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, g.backend)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(g.backend), driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	g.logger.InfoContext(ctx, "schema migrations applied")
	return nil
}
