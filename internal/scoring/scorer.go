// Package scoring implements the text-scoring capability used by the
// sentiment stage. The pipeline depends only on the Scorer interface; a
// lexicon implementation runs without any external service, and an OpenAI
// implementation delegates to a chat model.
package scoring

import "context"

// Result is a single text's sentiment scoring outcome. Score lies within the
// configured bounds; Label is derived from the score via the configured
// thresholds; Keywords are the indicator terms found in the text.
type Result struct {
	Score    float64
	Label    string
	Keywords []string
}

// Scorer scores free text. Implementations may fail per call; the sentiment
// stage isolates and counts such failures without aborting the run.
type Scorer interface {
	// Name identifies the implementation, recorded on scored records.
	Name() string
	// Score analyzes a single text.
	Score(ctx context.Context, text string) (Result, error)
}

// LabelFor maps a bounded score onto the label ladder. Thresholds are the
// upper exclusive bounds of the first four labels in ascending order.
func LabelFor(score float64, t Thresholds) string {
	switch {
	case score < t.VeryNegative:
		return LabelVeryNegative
	case score < t.Negative:
		return LabelNegative
	case score < t.Neutral:
		return LabelNeutral
	case score < t.Positive:
		return LabelPositive
	default:
		return LabelVeryPositive
	}
}

// Sentiment labels, ordered most negative first.
const (
	LabelVeryNegative = "very_negative"
	LabelNegative     = "negative"
	LabelNeutral      = "neutral"
	LabelPositive     = "positive"
	LabelVeryPositive = "very_positive"
)

// NegativeLabel reports whether a label counts as negative for aggregate
// features.
func NegativeLabel(label string) bool {
	return label == LabelNegative || label == LabelVeryNegative
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
