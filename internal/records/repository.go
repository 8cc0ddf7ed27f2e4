package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/burnwatch/burnwatch/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a record repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "records"),
	}
}

func (r *repo) Ingest(ctx context.Context, recs []RawRecord) (int, error) {
	inserted := 0
	for _, rec := range recs {
		if rec.UserID == "" || rec.Source == "" || rec.RecordedAt.IsZero() {
			return inserted, fmt.Errorf("%w: %+v", ErrInvalid, rec.Key())
		}

		err := r.insertRaw(ctx, rec)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}

	r.logger.Info("raw records ingested", "offered", len(recs), "inserted", inserted)
	return inserted, nil
}

func (r *repo) insertRaw(ctx context.Context, rec RawRecord) error {
	ingested := rec.IngestedAt
	if ingested.IsZero() {
		ingested = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO raw_records (user_id_hash, recorded_at, source, content, ingested_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.UserID, rec.RecordedAt.UnixMilli(), rec.Source, rec.Content, ingested.UnixMilli(),
	)
	if err != nil {
		return repository.MapError(fmt.Errorf("insert raw record: %w", err), ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) ListUnscored(ctx context.Context, limit int) ([]RawRecord, error) {
	q := `
		SELECT r.user_id_hash, r.recorded_at, r.source, r.content, r.ingested_at
		FROM raw_records r
		LEFT JOIN scored_records s
			ON s.user_id_hash = r.user_id_hash
			AND s.recorded_at = r.recorded_at
			AND s.source = r.source
		WHERE s.user_id_hash IS NULL
		ORDER BY r.recorded_at`

	args := []any{}
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}

	recs, err := repository.QueryMany(ctx, r.db, q, args, scanRaw)
	if err != nil {
		return nil, fmt.Errorf("query unscored records: %w", err)
	}
	return recs, nil
}

func (r *repo) InsertScored(ctx context.Context, rec ScoredRecord) error {
	keywords, err := json.Marshal(keywordsOrEmpty(rec.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	scoredAt := rec.ScoredAt
	if scoredAt.IsZero() {
		scoredAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scored_records (user_id_hash, recorded_at, source, score, label, keywords, scorer, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.UserID, rec.RecordedAt.UnixMilli(), rec.Source,
		rec.Score, rec.Label, string(keywords), rec.Scorer, scoredAt.UnixMilli(),
	)
	if err != nil {
		return repository.MapError(fmt.Errorf("insert scored record: %w", err), ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) ListScored(ctx context.Context, userID string, from, to time.Time) ([]ScoredRecord, error) {
	q := `
		SELECT user_id_hash, recorded_at, source, score, label, keywords, scorer, scored_at
		FROM scored_records
		WHERE user_id_hash = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at`

	recs, err := repository.QueryMany(ctx, r.db, q,
		[]any{userID, from.UnixMilli(), to.UnixMilli()}, scanScored)
	if err != nil {
		return nil, fmt.Errorf("query scored records: %w", err)
	}
	return recs, nil
}

func (r *repo) UserActivity(ctx context.Context) ([]UserActivity, error) {
	q := `
		SELECT user_id_hash, COUNT(*), MAX(scored_at)
		FROM scored_records
		GROUP BY user_id_hash
		ORDER BY user_id_hash`

	activity, err := repository.QueryMany(ctx, r.db, q, nil, scanActivity)
	if err != nil {
		return nil, fmt.Errorf("query user activity: %w", err)
	}
	return activity, nil
}

func (r *repo) CountRaw(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM raw_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("count raw records: %w", err)
	}
	return count, nil
}

func keywordsOrEmpty(kw []string) []string {
	if kw == nil {
		return []string{}
	}
	return kw
}
