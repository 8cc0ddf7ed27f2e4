package pipeline_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/burnwatch/burnwatch/internal/alerts"
	"github.com/burnwatch/burnwatch/internal/features"
	"github.com/burnwatch/burnwatch/internal/pipeline"
	"github.com/burnwatch/burnwatch/internal/predictions"
	"github.com/burnwatch/burnwatch/internal/records"
	"github.com/burnwatch/burnwatch/internal/risk"
	"github.com/burnwatch/burnwatch/internal/scoring"
	"github.com/burnwatch/burnwatch/internal/sentiment"
	"github.com/burnwatch/burnwatch/pkg/anonymize"
	"github.com/burnwatch/burnwatch/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := &storage.Config{
		Backend: "sqlite",
		Sqlite: storage.SqliteConfig{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}

	gw, err := storage.Open(cfg, testLogger())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { gw.Close() })

	if err := gw.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gw.DB()
}

// env bundles a fully wired pipeline over one sqlite warehouse with a stub
// alert channel.
type env struct {
	db           *sql.DB
	records      records.System
	predictions  predictions.System
	orchestrator *pipeline.Orchestrator
	channel      *stubChannel
}

type stubChannel struct {
	sent []alerts.Notification
}

func (s *stubChannel) Name() string { return "stub" }

func (s *stubChannel) Send(_ context.Context, n alerts.Notification) error {
	s.sent = append(s.sent, n)
	return nil
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := openDB(t)
	logger := testLogger()

	scoringCfg := &scoring.Config{Provider: "lexicon"}
	if err := scoringCfg.Finalize(nil); err != nil {
		t.Fatalf("finalize scoring config: %v", err)
	}
	scorer, err := scoring.NewScorer(scoringCfg)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}

	featuresCfg := &features.Config{WindowDays: []int{7}, MinRecords: 3}
	if err := featuresCfg.Finalize(); err != nil {
		t.Fatalf("finalize features config: %v", err)
	}

	predictionsCfg := &predictions.Config{MinTrainSamples: 5}
	if err := predictionsCfg.Finalize(); err != nil {
		t.Fatalf("finalize predictions config: %v", err)
	}

	recordSystem := records.New(db, logger)
	featureStore := features.NewStore(db, logger)
	predictionSystem := predictions.NewSystem(
		predictions.NewStore(db), featureStore, nil,
		featuresCfg.WindowDays, predictionsCfg, logger)

	channel := &stubChannel{}
	manager := alerts.NewManager(
		alerts.NewStore(db),
		[]alerts.Rule{{
			ID:       "elevated-risk",
			MinBand:  predictions.BandMedium,
			Cooldown: 24 * time.Hour,
			Channels: []string{"stub"},
		}},
		[]alerts.Channel{channel},
		logger,
	)

	orchestrator := pipeline.NewOrchestrator(
		pipeline.NewStore(db),
		sentiment.NewProcessor(recordSystem, scorer, scoringCfg.TimeoutDuration(), logger),
		features.NewProcessor(featuresCfg, recordSystem, featureStore, logger),
		predictionSystem,
		manager,
		logger,
	)

	return &env{
		db:           db,
		records:      recordSystem,
		predictions:  predictionSystem,
		orchestrator: orchestrator,
		channel:      channel,
	}
}

func seed(t *testing.T, e *env, end time.Time) {
	t.Helper()
	hasher := anonymize.NewHasher("test")
	sample := records.GenerateSample(records.SampleOptions{
		Users:          10,
		RecordsPerUser: 5,
		Days:           6,
		NegativeUsers:  6,
		End:            end,
		Seed:           7,
	}, hasher)

	inserted, err := e.records.Ingest(context.Background(), sample)
	if err != nil {
		t.Fatalf("ingest sample: %v", err)
	}
	if inserted != 50 {
		t.Fatalf("seeded %d records, want 50", inserted)
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	seed(t, e, asOf)

	// First run: no model yet, so the run scores and aggregates but cannot
	// predict or alert.
	first, err := e.orchestrator.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Status != pipeline.StatusSuccess {
		t.Fatalf("first run status = %s, want success", first.Status)
	}
	if first.Sentiment.Scored != 50 {
		t.Errorf("first run scored = %d, want 50", first.Sentiment.Scored)
	}
	if first.Features.Written != 10 {
		t.Errorf("first run features written = %d, want 10", first.Features.Written)
	}
	if first.Predictions.Predicted != 0 {
		t.Errorf("first run predicted = %d, want 0 without a model", first.Predictions.Predicted)
	}
	if first.Alerts.Triggered != 0 {
		t.Errorf("first run alerts = %d, want 0", first.Alerts.Triggered)
	}

	if _, err := e.predictions.Train(ctx, risk.DefaultHeuristicLabels()); err != nil {
		t.Fatalf("train: %v", err)
	}

	// Second run: features are fresh, the new model predicts all users, and
	// the six consistently negative users trip the alert rule.
	second, err := e.orchestrator.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Sentiment.Scored != 0 {
		t.Errorf("second run scored = %d, want 0", second.Sentiment.Scored)
	}
	if second.Features.Written != 0 {
		t.Errorf("second run features written = %d, want 0 (fresh)", second.Features.Written)
	}
	if second.Predictions.Predicted != 10 {
		t.Errorf("second run predicted = %d, want 10", second.Predictions.Predicted)
	}
	if second.Alerts.Triggered != 6 {
		t.Errorf("second run alerts = %d, want 6", second.Alerts.Triggered)
	}
	if len(e.channel.sent) != 6 {
		t.Errorf("channel deliveries = %d, want 6", len(e.channel.sent))
	}

	latest, err := e.predictions.Latest(ctx)
	if err != nil {
		t.Fatalf("latest predictions: %v", err)
	}
	var negativeMin, positiveMax float64 = 1, 0
	alerted := map[string]bool{}
	for _, n := range e.channel.sent {
		alerted[n.UserID] = true
	}
	for _, p := range latest {
		if alerted[p.UserID] {
			if p.RiskScore < negativeMin {
				negativeMin = p.RiskScore
			}
		} else if p.RiskScore > positiveMax {
			positiveMax = p.RiskScore
		}
	}
	if negativeMin <= positiveMax {
		t.Errorf("lowest alerted score %.3f not above highest unalerted score %.3f",
			negativeMin, positiveMax)
	}

	// Third run: nothing changed, so every stage is a no-op and the alert
	// cooldown suppresses redelivery.
	third, err := e.orchestrator.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Predictions.Predicted != 0 {
		t.Errorf("third run predicted = %d, want 0", third.Predictions.Predicted)
	}
	if third.Alerts.Triggered != 0 {
		t.Errorf("third run alerts = %d, want 0", third.Alerts.Triggered)
	}
	if third.Alerts.Suppressed != 6 {
		t.Errorf("third run suppressed = %d, want 6", third.Alerts.Suppressed)
	}
	if len(e.channel.sent) != 6 {
		t.Errorf("channel deliveries after rerun = %d, want still 6", len(e.channel.sent))
	}
}

func TestRunLockBlocksConcurrentRun(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	store := pipeline.NewStore(e.db)
	if err := store.AcquireLock(ctx, "other-run", time.Now().UTC(), time.Hour); err != nil {
		t.Fatalf("acquire lock: %v", err)
	}

	_, err := e.orchestrator.Run(ctx, time.Now().UTC())
	if !errors.Is(err, pipeline.ErrRunInProgress) {
		t.Errorf("run with held lock = %v, want ErrRunInProgress", err)
	}

	if err := store.ReleaseLock(ctx); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	report, err := e.orchestrator.Run(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("run after release: %v", err)
	}
	if report.Status != pipeline.StatusSuccess {
		t.Errorf("status = %s, want success", report.Status)
	}
}

func TestStaleRunLockTakenOver(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	store := pipeline.NewStore(e.db)
	now := time.Now().UTC()

	// A lock abandoned by a crashed process well past the stale window must
	// not block later runs forever.
	if err := store.AcquireLock(ctx, "crashed-run", now.Add(-3*time.Hour), time.Hour); err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	if err := store.AcquireLock(ctx, "new-run", now, time.Hour); err != nil {
		t.Fatalf("acquire over stale lock: %v", err)
	}

	// The takeover holds a fresh lock, so a third acquirer still blocks.
	err := store.AcquireLock(ctx, "concurrent-run", now, time.Hour)
	if !errors.Is(err, pipeline.ErrRunInProgress) {
		t.Errorf("acquire over fresh lock = %v, want ErrRunInProgress", err)
	}

	if err := store.ReleaseLock(ctx); err != nil {
		t.Fatalf("release lock: %v", err)
	}
}

func TestUnlockFreesHeldLock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	store := pipeline.NewStore(e.db)
	if err := store.AcquireLock(ctx, "crashed-run", time.Now().UTC(), time.Hour); err != nil {
		t.Fatalf("acquire lock: %v", err)
	}

	if err := e.orchestrator.Unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	report, err := e.orchestrator.Run(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("run after unlock: %v", err)
	}
	if report.Status != pipeline.StatusSuccess {
		t.Errorf("status = %s, want success", report.Status)
	}
}

func TestRunReportPersisted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	seed(t, e, asOf)

	report, err := e.orchestrator.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	store := pipeline.NewStore(e.db)
	persisted, err := store.FindRun(ctx, report.RunID)
	if err != nil {
		t.Fatalf("find run: %v", err)
	}
	if persisted.Status != pipeline.StatusSuccess {
		t.Errorf("persisted status = %s, want success", persisted.Status)
	}
	if persisted.Sentiment.Scored != report.Sentiment.Scored {
		t.Errorf("persisted scored = %d, want %d",
			persisted.Sentiment.Scored, report.Sentiment.Scored)
	}
}
