package alerts_test

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
	"github.com/burnwatch/burnwatch/internal/predictions"
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

// stubChannel records notifications and optionally fails every send.
type stubChannel struct {
	name string
	fail error
	sent []alerts.Notification
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Send(_ context.Context, n alerts.Notification) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, n)
	return nil
}

func prediction(user string, band predictions.Band) predictions.Prediction {
	return predictions.Prediction{
		UserID:       user,
		GeneratedAt:  time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
		ModelVersion: "v1",
		RiskScore:    0.9,
		RiskBand:     band,
		Factors: []predictions.Factor{
			{Dimension: "mean_sentiment_7d", Contribution: 0.8},
		},
		BasedOn: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func highRiskRule(channels ...string) alerts.Rule {
	return alerts.Rule{
		ID:       "high-risk",
		MinBand:  predictions.BandHigh,
		Cooldown: 24 * time.Hour,
		Channels: channels,
	}
}

func TestEvaluateTriggersOnBandThreshold(t *testing.T) {
	store := alerts.NewStore(openDB(t))
	ch := &stubChannel{name: "stub"}
	mgr := alerts.NewManager(store, []alerts.Rule{highRiskRule("stub")},
		[]alerts.Channel{ch}, testLogger())

	preds := []predictions.Prediction{
		prediction("high-user", predictions.BandHigh),
		prediction("medium-user", predictions.BandMedium),
		prediction("low-user", predictions.BandLow),
	}

	res, err := mgr.EvaluateAndDispatch(context.Background(), preds)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if res.Triggered != 1 {
		t.Errorf("triggered = %d, want 1", res.Triggered)
	}
	if len(ch.sent) != 1 || ch.sent[0].UserID != "high-user" {
		t.Errorf("channel received %+v, want one alert for high-user", ch.sent)
	}
}

func TestEvaluateCooldownSuppression(t *testing.T) {
	store := alerts.NewStore(openDB(t))
	ch := &stubChannel{name: "stub"}
	mgr := alerts.NewManager(store, []alerts.Rule{highRiskRule("stub")},
		[]alerts.Channel{ch}, testLogger())

	ctx := context.Background()
	preds := []predictions.Prediction{prediction("u1", predictions.BandHigh)}

	first, err := mgr.EvaluateAndDispatch(ctx, preds)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if first.Triggered != 1 {
		t.Fatalf("first triggered = %d, want 1", first.Triggered)
	}

	second, err := mgr.EvaluateAndDispatch(ctx, preds)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if second.Triggered != 0 || second.Suppressed != 1 {
		t.Errorf("second run = %+v, want suppressed by cooldown", second)
	}
	if len(ch.sent) != 1 {
		t.Errorf("channel received %d alerts, want 1", len(ch.sent))
	}
}

func TestEvaluateChannelFailureIsolation(t *testing.T) {
	store := alerts.NewStore(openDB(t))
	broken := &stubChannel{name: "broken", fail: errors.New("smtp down")}
	working := &stubChannel{name: "working"}
	mgr := alerts.NewManager(store, []alerts.Rule{highRiskRule("broken", "working")},
		[]alerts.Channel{broken, working}, testLogger())

	ctx := context.Background()
	res, err := mgr.EvaluateAndDispatch(ctx,
		[]predictions.Prediction{prediction("u1", predictions.BandHigh)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if res.Triggered != 1 {
		t.Errorf("triggered = %d, want 1 despite channel failure", res.Triggered)
	}
	if res.Failures != 1 {
		t.Errorf("failures = %d, want 1", res.Failures)
	}
	if len(working.sent) != 1 {
		t.Errorf("working channel received %d, want 1", len(working.sent))
	}

	history, err := store.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d records, want 1", len(history))
	}
	status := history[0].ChannelStatus
	if status["working"] != "sent" {
		t.Errorf("working status = %q, want sent", status["working"])
	}
	if status["broken"] == "" || status["broken"] == "sent" {
		t.Errorf("broken status = %q, want error description", status["broken"])
	}
}

func TestEvaluateUnknownChannel(t *testing.T) {
	store := alerts.NewStore(openDB(t))
	mgr := alerts.NewManager(store, []alerts.Rule{highRiskRule("missing")},
		nil, testLogger())

	res, err := mgr.EvaluateAndDispatch(context.Background(),
		[]predictions.Prediction{prediction("u1", predictions.BandHigh)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if res.Triggered != 1 || res.Failures != 1 {
		t.Errorf("result = %+v, want 1 triggered with 1 failure", res)
	}
}

func TestLastTriggeredEmpty(t *testing.T) {
	store := alerts.NewStore(openDB(t))

	_, fired, err := store.LastTriggered(context.Background(), "nobody", "high-risk")
	if err != nil {
		t.Fatalf("last triggered: %v", err)
	}
	if fired {
		t.Error("expected no prior alert")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &alerts.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	rules := cfg.RuntimeRules()
	if len(rules) != 1 {
		t.Fatalf("default rules = %d, want 1", len(rules))
	}
	if rules[0].MinBand != predictions.BandHigh {
		t.Errorf("default min band = %s, want high", rules[0].MinBand)
	}
	if rules[0].Cooldown != 24*time.Hour {
		t.Errorf("default cooldown = %v, want 24h", rules[0].Cooldown)
	}
}

func TestConfigRejectsUnknownBand(t *testing.T) {
	cfg := &alerts.Config{
		Rules: []alerts.RuleConfig{{
			ID:      "bad",
			MinBand: "critical",
		}},
	}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error for unknown band")
	}
}
