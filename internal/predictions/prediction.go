// Package predictions implements the prediction domain: model lifecycle
// (train, evaluate, predict), versioned immutable artifacts with a single
// active pointer, and risk-banded prediction records.
package predictions

import (
	"fmt"
	"time"

	"github.com/burnwatch/burnwatch/internal/risk"
)

// Band is an ordered risk bucket derived from the continuous score.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Rank returns the band's position in the low < medium < high order.
func (b Band) Rank() int {
	switch b {
	case BandLow:
		return 0
	case BandMedium:
		return 1
	case BandHigh:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether b meets or exceeds threshold under the band order.
func (b Band) AtLeast(threshold Band) bool {
	return b.Rank() >= threshold.Rank()
}

// BandFor maps a score onto a band. Cut points are inclusive on the lower
// edge, making band assignment a total deterministic function of the score.
func BandFor(score float64, cuts BandCuts) Band {
	switch {
	case score >= cuts.High:
		return BandHigh
	case score >= cuts.Medium:
		return BandMedium
	default:
		return BandLow
	}
}

// Factor is one ranked contributing feature dimension of a prediction.
type Factor struct {
	Dimension    string  `json:"dimension"`
	Contribution float64 `json:"contribution"`
}

// Prediction is an immutable risk prediction for one user. Later predictions
// supersede earlier ones; none are ever edited.
type Prediction struct {
	UserID       string    `json:"user_id_hash"`
	GeneratedAt  time.Time `json:"generated_at"`
	ModelVersion string    `json:"model_version"`
	RiskScore    float64   `json:"risk_score"`
	RiskBand     Band      `json:"risk_band"`
	Factors      []Factor  `json:"factors"`
	// BasedOn is the newest feature computation timestamp this prediction
	// consumed. Reruns over unchanged features produce no new prediction.
	BasedOn time.Time `json:"based_on"`
}

// ModelArtifact is an immutable trained model version. Exactly one artifact
// is active at a time; retraining supersedes but never deletes prior
// versions.
type ModelArtifact struct {
	Version     string       `json:"version"`
	TrainedAt   time.Time    `json:"trained_at"`
	SampleCount int          `json:"sample_count"`
	Metrics     risk.Metrics `json:"metrics"`
	Payload     payload      `json:"payload"`
}

// payload is the serialized model plus its input dimension order.
type payload struct {
	Dims  []string      `json:"dims"`
	Model risk.Logistic `json:"model"`
}

// Result reports a prediction stage run.
type Result struct {
	Predicted int
	Skipped   int
}

// Dims returns the model input dimension names for the given window lengths,
// in declaration order: per window ascending, the five aggregate statistics.
func Dims(windowDays []int) []string {
	stats := []string{
		"mean_sentiment",
		"trend_slope",
		"record_count",
		"negative_keyword_freq",
		"volatility",
	}

	dims := make([]string, 0, len(windowDays)*len(stats))
	for _, days := range windowDays {
		for _, stat := range stats {
			dims = append(dims, fmt.Sprintf("%s_%dd", stat, days))
		}
	}
	return dims
}
