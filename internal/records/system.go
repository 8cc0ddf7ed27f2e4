package records

import (
	"context"
	"time"
)

// System defines the public contract for record domain operations.
type System interface {
	// Ingest writes raw records append-only, skipping key collisions.
	// Returns the count of newly inserted records.
	Ingest(ctx context.Context, recs []RawRecord) (int, error)

	// ListUnscored returns raw records with no corresponding scored record,
	// selected by anti-join on the natural key so late-arriving records are
	// always picked up. A limit of 0 means no limit.
	ListUnscored(ctx context.Context, limit int) ([]RawRecord, error)

	// InsertScored writes a scored record append-only.
	// Returns ErrDuplicate on key collision.
	InsertScored(ctx context.Context, rec ScoredRecord) error

	// ListScored returns a user's scored records with RecordedAt in
	// [from, to), ordered by RecordedAt ascending.
	ListScored(ctx context.Context, userID string, from, to time.Time) ([]ScoredRecord, error)

	// UserActivity returns, per user with at least one scored record, the
	// record count and the latest ScoredAt timestamp.
	UserActivity(ctx context.Context) ([]UserActivity, error)

	// CountRaw returns the total number of raw records.
	CountRaw(ctx context.Context) (int, error)
}
