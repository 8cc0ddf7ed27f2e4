// Package pipeline sequences the batch stages: sentiment scoring, feature
// aggregation, risk prediction, and alerting. Runs are serialized by a
// warehouse lock and every run leaves a persisted report.
package pipeline

import (
	"time"

	"github.com/burnwatch/burnwatch/internal/alerts"
	"github.com/burnwatch/burnwatch/internal/features"
	"github.com/burnwatch/burnwatch/internal/predictions"
	"github.com/burnwatch/burnwatch/internal/sentiment"
)

// Status is the terminal state of a pipeline run.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusAborted Status = "aborted"
)

// Report summarizes one pipeline run. It is persisted alongside the run
// record and returned to the caller.
type Report struct {
	RunID       string             `json:"run_id"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Status      Status             `json:"status"`
	Sentiment   sentiment.Result   `json:"sentiment"`
	Features    features.Result    `json:"features"`
	Predictions predictions.Result `json:"predictions"`
	Alerts      alerts.Result      `json:"alerts"`
	// Error holds the failure message of an aborted run.
	Error string `json:"error,omitempty"`
}
