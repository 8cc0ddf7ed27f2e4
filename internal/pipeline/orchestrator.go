package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/burnwatch/burnwatch/internal/alerts"
	"github.com/burnwatch/burnwatch/internal/features"
	"github.com/burnwatch/burnwatch/internal/predictions"
	"github.com/burnwatch/burnwatch/internal/sentiment"
)

// lockStaleAfter bounds how long a crashed process can hold the run lock.
// It must comfortably exceed the longest plausible run.
const lockStaleAfter = 2 * time.Hour

// Orchestrator runs the pipeline stages in order. Each stage consumes the
// previous stage's persisted output, so a rerun after a mid-pipeline failure
// picks up where the data left off.
type Orchestrator struct {
	store       Store
	sentiment   *sentiment.Processor
	features    *features.Processor
	predictions predictions.System
	alerts      *alerts.Manager
	logger      *slog.Logger
	now         func() time.Time
	running     atomic.Bool
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	store Store,
	sentimentStage *sentiment.Processor,
	featureStage *features.Processor,
	predictionStage predictions.System,
	alertStage *alerts.Manager,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		sentiment:   sentimentStage,
		features:    featureStage,
		predictions: predictionStage,
		alerts:      alertStage,
		logger:      logger.With("system", "pipeline"),
		now:         time.Now,
	}
}

// Run executes one full pipeline pass as of the given time. Only one run may
// execute at a time, enforced both in-process and through the warehouse run
// lock. The returned report is persisted even when the run aborts.
func (o *Orchestrator) Run(ctx context.Context, asOf time.Time) (*Report, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: o.now().UTC(),
		Status:    StatusRunning,
	}

	if err := o.store.AcquireLock(ctx, report.RunID, report.StartedAt, lockStaleAfter); err != nil {
		return nil, err
	}
	defer func() {
		if err := o.store.ReleaseLock(context.WithoutCancel(ctx)); err != nil {
			o.logger.ErrorContext(ctx, "release run lock", "run_id", report.RunID, "error", err)
		}
	}()

	if err := o.store.InsertRun(ctx, report.RunID, report.StartedAt); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "pipeline run started",
		"run_id", report.RunID, "as_of", asOf.UTC())

	err := o.runStages(ctx, asOf, report)

	report.FinishedAt = o.now().UTC()
	if err != nil {
		report.Status = StatusAborted
		report.Error = err.Error()
	} else {
		report.Status = StatusSuccess
	}

	if finishErr := o.store.FinishRun(context.WithoutCancel(ctx), report); finishErr != nil {
		o.logger.ErrorContext(ctx, "persist run report",
			"run_id", report.RunID, "error", finishErr)
		if err == nil {
			err = finishErr
		}
	}

	o.logger.InfoContext(ctx, "pipeline run finished",
		"run_id", report.RunID,
		"status", string(report.Status),
		"scored", report.Sentiment.Scored,
		"features_written", report.Features.Written,
		"predicted", report.Predictions.Predicted,
		"alerts_triggered", report.Alerts.Triggered,
	)

	return report, err
}

// Unlock force-releases the run lock. It exists for operators cleaning up
// after a crashed process; a live run that loses its lock this way will
// still release harmlessly on finish.
func (o *Orchestrator) Unlock(ctx context.Context) error {
	return o.store.ReleaseLock(ctx)
}

func (o *Orchestrator) runStages(ctx context.Context, asOf time.Time, report *Report) error {
	var err error

	if report.Sentiment, err = o.sentiment.ProcessPending(ctx); err != nil {
		return err
	}

	if report.Features, err = o.features.RecomputeWindows(ctx, asOf); err != nil {
		return err
	}

	report.Predictions, err = o.predictions.Predict(ctx, asOf)
	if errors.Is(err, predictions.ErrModelNotTrained) {
		// No model yet: features still accumulate, alerting just has
		// nothing new to evaluate.
		o.logger.WarnContext(ctx, "prediction stage skipped", "reason", err)
		err = nil
	}
	if err != nil {
		return err
	}

	latest, err := o.predictions.Latest(ctx)
	if err != nil {
		return err
	}

	report.Alerts, err = o.alerts.EvaluateAndDispatch(ctx, latest)
	return err
}
