package predictions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/burnwatch/burnwatch/pkg/repository"
)

// Store defines persistence for predictions and model artifacts.
type Store interface {
	// InsertPrediction appends a prediction record. Predictions are never
	// updated or deleted.
	InsertPrediction(ctx context.Context, p Prediction) error

	// LatestPerUser returns the most recent prediction for every user,
	// ordered by user.
	LatestPerUser(ctx context.Context) ([]Prediction, error)

	// SaveArtifact appends an immutable model artifact and makes it the
	// active model in one transaction, so a failed activation never leaves
	// an orphaned artifact behind.
	SaveArtifact(ctx context.Context, a ModelArtifact) error

	// ActiveArtifact returns the currently active model artifact, or
	// ErrModelNotTrained if none has been activated.
	ActiveArtifact(ctx context.Context) (ModelArtifact, error)

	// FindArtifact returns the artifact with the given version.
	FindArtifact(ctx context.Context, version string) (ModelArtifact, error)
}

type store struct {
	db *sql.DB
}

// NewStore creates a prediction store.
func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

const predictionColumns = `p.user_id_hash, p.generated_at, p.model_version,
	p.risk_score, p.risk_band, p.factors, p.based_on`

const artifactColumns = `a.version, a.trained_at, a.sample_count, a.metrics, a.payload`

func (s *store) InsertPrediction(ctx context.Context, p Prediction) error {
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (
			user_id_hash, generated_at, model_version,
			risk_score, risk_band, factors, based_on
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.UserID, p.GeneratedAt.UnixMilli(), p.ModelVersion,
		p.RiskScore, string(p.RiskBand), string(factors), p.BasedOn.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w",
			repository.MapError(err, ErrDuplicate, ErrDuplicate))
	}
	return nil
}

func (s *store) LatestPerUser(ctx context.Context) ([]Prediction, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM predictions p
		JOIN (
			SELECT user_id_hash AS uid, MAX(generated_at) AS latest
			FROM predictions
			GROUP BY user_id_hash
		) l ON l.uid = p.user_id_hash AND l.latest = p.generated_at
		ORDER BY p.user_id_hash`, predictionColumns)

	preds, err := repository.QueryMany(ctx, s.db, q, nil, scanPrediction)
	if err != nil {
		return nil, fmt.Errorf("list latest predictions: %w", err)
	}
	return preds, nil
}

func (s *store) SaveArtifact(ctx context.Context, a ModelArtifact) error {
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_artifacts (version, trained_at, sample_count, metrics, payload)
			VALUES ($1, $2, $3, $4, $5)`,
			a.Version, a.TrainedAt.UnixMilli(), a.SampleCount,
			string(metrics), string(payload),
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("insert model artifact: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO active_model (id, version, activated_at)
			VALUES (1, $1, $2)
			ON CONFLICT (id) DO UPDATE SET
				version = EXCLUDED.version,
				activated_at = EXCLUDED.activated_at`,
			a.Version, a.TrainedAt.UnixMilli(),
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("activate model %s: %w", a.Version, err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrDuplicateArtifact, ErrDuplicateArtifact)
	}
	return nil
}

func (s *store) ActiveArtifact(ctx context.Context) (ModelArtifact, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM model_artifacts a
		JOIN active_model m ON m.version = a.version`, artifactColumns)

	art, err := repository.QueryOne(ctx, s.db, q, nil, scanArtifact)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelArtifact{}, ErrModelNotTrained
	}
	if err != nil {
		return ModelArtifact{}, fmt.Errorf("load active model: %w", err)
	}
	return art, nil
}

func (s *store) FindArtifact(ctx context.Context, version string) (ModelArtifact, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM model_artifacts a WHERE a.version = $1`, artifactColumns)

	art, err := repository.QueryOne(ctx, s.db, q, []any{version}, scanArtifact)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelArtifact{}, fmt.Errorf("artifact %s: %w", version, ErrArtifactNotFound)
	}
	if err != nil {
		return ModelArtifact{}, fmt.Errorf("find model artifact: %w", err)
	}
	return art, nil
}

func scanPrediction(sc repository.Scanner) (Prediction, error) {
	var (
		p           Prediction
		generatedAt int64
		basedOn     int64
		band        string
		factors     string
	)

	if err := sc.Scan(
		&p.UserID, &generatedAt, &p.ModelVersion,
		&p.RiskScore, &band, &factors, &basedOn,
	); err != nil {
		return Prediction{}, err
	}

	if err := json.Unmarshal([]byte(factors), &p.Factors); err != nil {
		return Prediction{}, fmt.Errorf("unmarshal factors: %w", err)
	}

	p.GeneratedAt = time.UnixMilli(generatedAt).UTC()
	p.BasedOn = time.UnixMilli(basedOn).UTC()
	p.RiskBand = Band(band)
	return p, nil
}

func scanArtifact(sc repository.Scanner) (ModelArtifact, error) {
	var (
		a         ModelArtifact
		trainedAt int64
		metrics   string
		payload   string
	)

	if err := sc.Scan(&a.Version, &trainedAt, &a.SampleCount, &metrics, &payload); err != nil {
		return ModelArtifact{}, err
	}

	if err := json.Unmarshal([]byte(metrics), &a.Metrics); err != nil {
		return ModelArtifact{}, fmt.Errorf("unmarshal metrics: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &a.Payload); err != nil {
		return ModelArtifact{}, fmt.Errorf("unmarshal payload: %w", err)
	}

	a.TrainedAt = time.UnixMilli(trainedAt).UTC()
	return a, nil
}
