package features

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/burnwatch/burnwatch/pkg/repository"
)

// Store defines persistence for feature vectors.
type Store interface {
	// Upsert writes a vector, replacing any existing vector with the same
	// (user, window days, window end) key.
	Upsert(ctx context.Context, v Vector) error

	// Find returns the vector for the given key, or nil if none exists.
	Find(ctx context.Context, userID string, windowDays int, windowEnd time.Time) (*Vector, error)

	// ListForWindowEnd returns all vectors with the given window end, ordered
	// by user then window length.
	ListForWindowEnd(ctx context.Context, windowEnd time.Time) ([]Vector, error)

	// ListAll returns every stored vector, ordered by user, window, end.
	ListAll(ctx context.Context) ([]Vector, error)
}

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a feature vector store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &store{
		db:     db,
		logger: logger.With("system", "features"),
	}
}

const vectorColumns = `user_id_hash, window_days, window_end, window_start,
	mean_sentiment, trend_slope, record_count, negative_keyword_freq,
	volatility, computed_at`

func (s *store) Upsert(ctx context.Context, v Vector) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_features (
			user_id_hash, window_days, window_end, window_start,
			mean_sentiment, trend_slope, record_count, negative_keyword_freq,
			volatility, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id_hash, window_days, window_end) DO UPDATE SET
			window_start = EXCLUDED.window_start,
			mean_sentiment = EXCLUDED.mean_sentiment,
			trend_slope = EXCLUDED.trend_slope,
			record_count = EXCLUDED.record_count,
			negative_keyword_freq = EXCLUDED.negative_keyword_freq,
			volatility = EXCLUDED.volatility,
			computed_at = EXCLUDED.computed_at`,
		v.UserID, v.WindowDays, v.WindowEnd.UnixMilli(), v.WindowStart.UnixMilli(),
		v.MeanSentiment, v.TrendSlope, v.RecordCount, v.NegativeKeywordFreq,
		v.Volatility, v.ComputedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert feature vector: %w", err)
	}
	return nil
}

func (s *store) Find(ctx context.Context, userID string, windowDays int, windowEnd time.Time) (*Vector, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM user_features
		WHERE user_id_hash = $1 AND window_days = $2 AND window_end = $3`, vectorColumns)

	v, err := repository.QueryOne(ctx, s.db, q,
		[]any{userID, windowDays, windowEnd.UnixMilli()}, scanVector)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find feature vector: %w", err)
	}
	return &v, nil
}

func (s *store) ListForWindowEnd(ctx context.Context, windowEnd time.Time) ([]Vector, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM user_features
		WHERE window_end = $1
		ORDER BY user_id_hash, window_days`, vectorColumns)

	vecs, err := repository.QueryMany(ctx, s.db, q, []any{windowEnd.UnixMilli()}, scanVector)
	if err != nil {
		return nil, fmt.Errorf("list feature vectors: %w", err)
	}
	return vecs, nil
}

func (s *store) ListAll(ctx context.Context) ([]Vector, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM user_features
		ORDER BY user_id_hash, window_days, window_end`, vectorColumns)

	vecs, err := repository.QueryMany(ctx, s.db, q, nil, scanVector)
	if err != nil {
		return nil, fmt.Errorf("list feature vectors: %w", err)
	}
	return vecs, nil
}

func scanVector(sc repository.Scanner) (Vector, error) {
	var (
		v          Vector
		windowEnd  int64
		windowSt   int64
		computedAt int64
	)

	if err := sc.Scan(
		&v.UserID, &v.WindowDays, &windowEnd, &windowSt,
		&v.MeanSentiment, &v.TrendSlope, &v.RecordCount, &v.NegativeKeywordFreq,
		&v.Volatility, &computedAt,
	); err != nil {
		return Vector{}, err
	}

	v.WindowEnd = time.UnixMilli(windowEnd).UTC()
	v.WindowStart = time.UnixMilli(windowSt).UTC()
	v.ComputedAt = time.UnixMilli(computedAt).UTC()
	return v, nil
}
