// Package alerts implements the alerting domain: rules evaluated against the
// latest predictions, cooldown-based deduplication, and fan-out to
// notification channels with per-channel failure isolation.
package alerts

import (
	"time"

	"github.com/burnwatch/burnwatch/internal/predictions"
)

// Record is one append-only alert history entry. An alert is recorded once
// its dispatch was attempted, regardless of per-channel outcome.
type Record struct {
	UserID      string           `json:"user_id_hash"`
	RuleID      string           `json:"rule_id"`
	TriggeredAt time.Time        `json:"triggered_at"`
	RiskBand    predictions.Band `json:"risk_band"`
	// ChannelStatus maps channel name to "sent" or an error description.
	ChannelStatus map[string]string `json:"channel_status"`
}

// Rule decides when a prediction warrants an alert.
type Rule struct {
	ID       string
	MinBand  predictions.Band
	Cooldown time.Duration
	Channels []string
}

// Result reports an alert stage run.
type Result struct {
	Triggered  int
	Suppressed int
	// Failures counts individual channel deliveries that failed. Channel
	// failures never abort the stage.
	Failures int
}
