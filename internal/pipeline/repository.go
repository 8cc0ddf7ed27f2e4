package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/burnwatch/burnwatch/pkg/repository"
)

// Store defines persistence for run bookkeeping and the run lock.
type Store interface {
	// AcquireLock claims the single-row run lock. Returns ErrRunInProgress
	// when another run holds it. A lock older than staleAfter is treated as
	// abandoned by a crashed process and taken over.
	AcquireLock(ctx context.Context, runID string, at time.Time, staleAfter time.Duration) error

	// ReleaseLock frees the run lock.
	ReleaseLock(ctx context.Context) error

	// InsertRun records a started run.
	InsertRun(ctx context.Context, runID string, startedAt time.Time) error

	// FinishRun records a run's terminal state and report.
	FinishRun(ctx context.Context, report *Report) error

	// FindRun returns the report persisted for the given run.
	FindRun(ctx context.Context, runID string) (*Report, error)
}

type store struct {
	db *sql.DB
}

// NewStore creates a pipeline run store.
func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) AcquireLock(ctx context.Context, runID string, at time.Time, staleAfter time.Duration) error {
	for attempt := 0; ; attempt++ {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO run_lock (id, run_id, acquired_at)
			VALUES (1, $1, $2)`,
			runID, at.UnixMilli(),
		)
		if err == nil {
			return nil
		}
		mapped := repository.MapError(err, ErrRunInProgress, ErrRunInProgress)
		if !errors.Is(mapped, ErrRunInProgress) {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		if attempt > 0 || staleAfter <= 0 {
			return ErrRunInProgress
		}

		var acquiredAt int64
		scanErr := s.db.QueryRowContext(ctx,
			`SELECT acquired_at FROM run_lock WHERE id = 1`).Scan(&acquiredAt)
		if errors.Is(scanErr, sql.ErrNoRows) {
			// Holder released between our insert and read; try again.
			continue
		}
		if scanErr != nil {
			return fmt.Errorf("inspect run lock: %w", scanErr)
		}
		if at.Sub(time.UnixMilli(acquiredAt)) <= staleAfter {
			return ErrRunInProgress
		}

		// The holder never released within the stale window, so it crashed
		// without cleanup. Evict only the row we inspected so a concurrent
		// live acquirer is left alone.
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM run_lock WHERE id = 1 AND acquired_at = $1`, acquiredAt); err != nil {
			return fmt.Errorf("evict stale run lock: %w", err)
		}
	}
}

func (s *store) ReleaseLock(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_lock WHERE id = 1`); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

func (s *store) InsertRun(ctx context.Context, runID string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (run_id, started_at, status)
		VALUES ($1, $2, $3)`,
		runID, startedAt.UnixMilli(), string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

func (s *store) FinishRun(ctx context.Context, report *Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}

	err = repository.ExecExpectOne(ctx, s.db, `
		UPDATE pipeline_runs
		SET finished_at = $1, status = $2, report = $3
		WHERE run_id = $4`,
		report.FinishedAt.UnixMilli(), string(report.Status), string(body), report.RunID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s: %w", report.RunID, ErrRunNotFound)
	}
	if err != nil {
		return fmt.Errorf("finish pipeline run: %w", err)
	}
	return nil
}

func (s *store) FindRun(ctx context.Context, runID string) (*Report, error) {
	var body sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT report FROM pipeline_runs WHERE run_id = $1`,
		runID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find pipeline run: %w", err)
	}

	if !body.Valid {
		return nil, fmt.Errorf("run %s has no report: %w", runID, ErrRunNotFound)
	}

	var report Report
	if err := json.Unmarshal([]byte(body.String), &report); err != nil {
		return nil, fmt.Errorf("unmarshal run report: %w", err)
	}
	return &report, nil
}
