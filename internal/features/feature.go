// Package features implements per-user rolling-window aggregates over scored
// records. Vectors are keyed by (user, window) and idempotently replaced on
// recomputation, never accumulated.
package features

import "time"

// Vector holds one user's aggregate statistics for one trailing window.
type Vector struct {
	UserID              string    `json:"user_id_hash"`
	WindowDays          int       `json:"window_days"`
	WindowStart         time.Time `json:"window_start"`
	WindowEnd           time.Time `json:"window_end"`
	MeanSentiment       float64   `json:"mean_sentiment"`
	TrendSlope          float64   `json:"trend_slope"`
	RecordCount         int       `json:"record_count"`
	NegativeKeywordFreq float64   `json:"negative_keyword_freq"`
	Volatility          float64   `json:"volatility"`
	ComputedAt          time.Time `json:"computed_at"`
}

// Result reports a feature stage run.
type Result struct {
	Written int
	Skipped int
}
