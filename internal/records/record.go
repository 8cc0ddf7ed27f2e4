// Package records implements the raw and scored record domain. Raw records
// are the anonymized free-text inputs to the pipeline; scored records are the
// sentiment-scored outputs created exactly once per raw record. Both are
// append-only: writes fail on key collision rather than overwriting.
package records

import "time"

// RawRecord is an anonymized free-text record awaiting sentiment scoring.
// It is immutable once written and keyed by (UserID, RecordedAt, Source).
type RawRecord struct {
	UserID     string    `json:"user_id_hash"`
	RecordedAt time.Time `json:"recorded_at"`
	Source     string    `json:"source"`
	Content    string    `json:"content"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Key returns the record's natural key.
func (r RawRecord) Key() Key {
	return Key{UserID: r.UserID, RecordedAt: r.RecordedAt, Source: r.Source}
}

// ScoredRecord is the sentiment-scored counterpart of a RawRecord, sharing
// its natural key. Score is bounded to the configured sentiment range.
type ScoredRecord struct {
	UserID     string    `json:"user_id_hash"`
	RecordedAt time.Time `json:"recorded_at"`
	Source     string    `json:"source"`
	Score      float64   `json:"score"`
	Label      string    `json:"label"`
	Keywords   []string  `json:"keywords"`
	Scorer     string    `json:"scorer"`
	ScoredAt   time.Time `json:"scored_at"`
}

// Key identifies a record by its natural key.
type Key struct {
	UserID     string
	RecordedAt time.Time
	Source     string
}

// UserActivity summarizes a user's scored-record footprint, used by the
// feature stage to decide which windows need recomputation.
type UserActivity struct {
	UserID       string
	RecordCount  int
	LastScoredAt time.Time
}
