// Package sentiment implements the first transform stage: scoring raw
// records that have no scored counterpart yet.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/burnwatch/burnwatch/internal/records"
	"github.com/burnwatch/burnwatch/internal/scoring"
)

// Result reports a stage run over pending records. Failed counts records the
// scorer could not handle; they remain unscored and are retried on the next
// run. Skipped counts benign key collisions from concurrent reruns.
type Result struct {
	Scored  int
	Skipped int
	Failed  int
}

// Processor scores pending raw records through the configured scorer.
type Processor struct {
	records records.System
	scorer  scoring.Scorer
	timeout time.Duration
	logger  *slog.Logger
}

// NewProcessor creates a sentiment stage processor.
func NewProcessor(recs records.System, scorer scoring.Scorer, timeout time.Duration, logger *slog.Logger) *Processor {
	return &Processor{
		records: recs,
		scorer:  scorer,
		timeout: timeout,
		logger:  logger.With("system", "sentiment"),
	}
}

// ProcessPending selects raw records lacking a scored record (anti-join on
// the natural key) and scores them. Records from independent users carry no
// ordering dependency, so scoring runs in parallel. Scorer failures are
// isolated per record; only storage failures abort the stage.
func (p *Processor) ProcessPending(ctx context.Context) (Result, error) {
	pending, err := p.records.ListUnscored(ctx, 0)
	if err != nil {
		return Result{}, fmt.Errorf("list unscored: %w", err)
	}

	if len(pending) == 0 {
		p.logger.Info("no pending records")
		return Result{}, nil
	}

	var scored, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(pending)))

	for _, rec := range pending {
		rec := rec
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			result, err := p.score(gctx, rec.Content)
			if err != nil {
				failed.Add(1)
				p.logger.Warn("scoring failed",
					"user", rec.UserID,
					"recorded_at", rec.RecordedAt,
					"error", err,
				)
				return nil
			}

			err = p.records.InsertScored(gctx, records.ScoredRecord{
				UserID:     rec.UserID,
				RecordedAt: rec.RecordedAt,
				Source:     rec.Source,
				Score:      result.Score,
				Label:      result.Label,
				Keywords:   result.Keywords,
				Scorer:     p.scorer.Name(),
				ScoredAt:   time.Now().UTC(),
			})
			if errors.Is(err, records.ErrDuplicate) {
				skipped.Add(1)
				return nil
			}
			if err != nil {
				return err
			}

			scored.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("score pending records: %w", err)
	}

	res := Result{
		Scored:  int(scored.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}

	p.logger.Info("sentiment stage complete",
		"scored", res.Scored,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res, nil
}

func (p *Processor) score(ctx context.Context, text string) (scoring.Result, error) {
	scoreCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.scorer.Score(scoreCtx, text)
}

func workerCount(n int) int {
	return max(min(runtime.NumCPU(), n), 1)
}
