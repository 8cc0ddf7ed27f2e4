package scoring_test

import (
	"context"
	"testing"

	"github.com/burnwatch/burnwatch/internal/scoring"
)

func lexicon(t *testing.T) scoring.Scorer {
	t.Helper()
	cfg := &scoring.Config{Provider: "lexicon"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}

	scorer, err := scoring.NewScorer(cfg)
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	return scorer
}

func TestLexiconScoreOrdering(t *testing.T) {
	scorer := lexicon(t)
	ctx := context.Background()

	negative, err := scorer.Score(ctx, "completely exhausted and burned out, everything feels hopeless")
	if err != nil {
		t.Fatalf("score negative: %v", err)
	}

	positive, err := scorer.Score(ctx, "great productive week, feeling happy and rested")
	if err != nil {
		t.Fatalf("score positive: %v", err)
	}

	if negative.Score >= positive.Score {
		t.Errorf("negative score %.3f not below positive score %.3f",
			negative.Score, positive.Score)
	}
	if !scoring.NegativeLabel(negative.Label) {
		t.Errorf("negative text labeled %s", negative.Label)
	}
}

func TestLexiconScoreBounds(t *testing.T) {
	scorer := lexicon(t)

	tests := []struct {
		name string
		text string
	}{
		{"all negative", "exhausted drained stressed anxious hopeless miserable"},
		{"all positive", "good great happy calm rested focused"},
		{"empty", ""},
		{"no valence terms", "the quarterly report is attached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scorer.Score(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("score: %v", err)
			}
			if got.Score < 0 || got.Score > 1 {
				t.Errorf("score %.3f outside [0,1]", got.Score)
			}
		})
	}
}

func TestLexiconDeterministic(t *testing.T) {
	scorer := lexicon(t)
	ctx := context.Background()
	text := "tired and worrying about deadlines"

	first, err := scorer.Score(ctx, text)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, err := scorer.Score(ctx, text)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if first.Score != second.Score || first.Label != second.Label {
		t.Errorf("scoring not deterministic: %+v vs %+v", first, second)
	}
}

func TestLexiconExtractsIndicatorKeywords(t *testing.T) {
	scorer := lexicon(t)

	got, err := scorer.Score(context.Background(),
		"feeling burned out and anxious, can't sleep")
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if len(got.Keywords) == 0 {
		t.Fatal("no indicator keywords extracted")
	}

	found := map[string]bool{}
	for _, kw := range got.Keywords {
		found[kw] = true
	}
	if !found["burned out"] && !found["anxious"] {
		t.Errorf("keywords = %v, want burnout or anxiety indicators", got.Keywords)
	}
}

func TestLexiconMatchesWholeWordsOnly(t *testing.T) {
	scorer := lexicon(t)
	ctx := context.Background()

	// "stressful" embeds "stress" but is not itself in any word list, so the
	// text carries no valence hits and no indicator keywords.
	got, err := scorer.Score(ctx, "the stressful parts are someone else's problem")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got.Score != 0.5 {
		t.Errorf("score = %.3f, want neutral 0.5", got.Score)
	}
	if len(got.Keywords) != 0 {
		t.Errorf("keywords = %v, want none", got.Keywords)
	}

	// "stressed" must count once, not once for itself and once for the
	// embedded "stress" indicator.
	got, err = scorer.Score(ctx, "feeling stressed")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "stressed" {
		t.Errorf("keywords = %v, want [stressed]", got.Keywords)
	}
}

func TestLabelFor(t *testing.T) {
	thresholds := scoring.Thresholds{
		VeryNegative: 0.2,
		Negative:     0.4,
		Neutral:      0.6,
		Positive:     0.8,
	}

	tests := []struct {
		score float64
		want  string
	}{
		{0.0, scoring.LabelVeryNegative},
		{0.19, scoring.LabelVeryNegative},
		{0.2, scoring.LabelNegative},
		{0.4, scoring.LabelNeutral},
		{0.6, scoring.LabelPositive},
		{0.8, scoring.LabelVeryPositive},
		{1.0, scoring.LabelVeryPositive},
	}

	for _, tt := range tests {
		got := scoring.LabelFor(tt.score, thresholds)
		if got != tt.want {
			t.Errorf("LabelFor(%.2f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestConfigThresholdsFollowScoreRange(t *testing.T) {
	// Default cut points scale to non-unit bounds instead of leaving every
	// score above the top cut.
	cfg := &scoring.Config{MinScore: 0, MaxScore: 10}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	want := scoring.Thresholds{VeryNegative: 2, Negative: 4, Neutral: 6, Positive: 8}
	if cfg.Thresholds != want {
		t.Errorf("thresholds = %+v, want %+v", cfg.Thresholds, want)
	}
}

func TestConfigRejectsThresholdsOutsideScoreRange(t *testing.T) {
	cfg := &scoring.Config{
		MaxScore: 1,
		Thresholds: scoring.Thresholds{
			VeryNegative: 0.2,
			Negative:     0.4,
			Neutral:      0.6,
			Positive:     1.5,
		},
	}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error for thresholds outside score range")
	}
}

func TestNewScorerUnknownProvider(t *testing.T) {
	cfg := &scoring.Config{Provider: "magic"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}

	if _, err := scoring.NewScorer(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
