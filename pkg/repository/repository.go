// Package repository holds the generic SQL plumbing shared by every store
// in the warehouse: typed scan helpers, transaction wrapping, and backend
// error translation. Stores own their SQL; this package only removes the
// boilerplate around running it.
package repository

import (
	"context"
	"database/sql"
)

// Querier runs queries. *sql.DB, *sql.Tx, and *sql.Conn all satisfy it, so
// store methods work unchanged inside and outside a transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor runs statements. *sql.DB, *sql.Tx, and *sql.Conn all satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scanner is the subset of *sql.Row and *sql.Rows the scan helpers need.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc maps one row onto a value of T. Each store defines one per
// entity and passes it to QueryOne and QueryMany.
type ScanFunc[T any] func(Scanner) (T, error)

// QueryOne runs a query that must yield exactly one row and scans it.
// A missing row surfaces as sql.ErrNoRows for the caller to translate.
func QueryOne[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryMany runs a query and scans every row. No rows yields an empty
// slice, never nil.
func QueryMany[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ExecExpectOne runs a statement that must affect exactly one row and
// returns sql.ErrNoRows when it affected none.
func ExecExpectOne(ctx context.Context, e Executor, query string, args ...any) error {
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error. The rollback after a successful commit is a no-op.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}
	return result, tx.Commit()
}
