package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/burnwatch/burnwatch/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

// SQLite constraint mapping cannot be built here because the driver's error
// type has no exported constructor; the store tests cover that path with
// real duplicate inserts.
func TestMapError(t *testing.T) {
	passthrough := errors.New("connection reset")
	fkViolation := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("find run: %w", sql.ErrNoRows), errNotFound},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"wrapped pg unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), errDuplicate},
		{"pg foreign key violation", fkViolation, fkViolation},
		{"unrelated error", passthrough, passthrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if tt.want == nil {
				if got != nil {
					t.Errorf("MapError(%v) = %v, want nil", tt.err, got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
