package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite "modernc.org/sqlite"
)

const (
	pgDuplicateKeyCode = "23505"
	sqliteConstraint   = 19
)

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to notFoundErr and key-collision errors from either
// backend (PostgreSQL unique violation 23505, SQLite SQLITE_CONSTRAINT) to
// duplicateErr. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateKeyCode {
		return duplicateErr
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) && sqErr.Code()&0xff == sqliteConstraint {
		return duplicateErr
	}

	return err
}
