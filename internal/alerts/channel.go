package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/burnwatch/burnwatch/internal/predictions"
)

// Notification carries the alert content delivered to channels. It never
// contains raw record text or unhashed identity.
type Notification struct {
	UserID      string
	RuleID      string
	RiskScore   float64
	RiskBand    predictions.Band
	Factors     []predictions.Factor
	GeneratedAt time.Time
}

// Subject returns a short single-line summary.
func (n Notification) Subject() string {
	return fmt.Sprintf("burnout risk %s for user %s", n.RiskBand, shortID(n.UserID))
}

// Body returns the full human-readable alert text.
func (n Notification) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Burnout risk alert (%s)\n", n.RuleID)
	fmt.Fprintf(&b, "User: %s\n", n.UserID)
	fmt.Fprintf(&b, "Risk: %.3f (%s)\n", n.RiskScore, n.RiskBand)
	fmt.Fprintf(&b, "Generated: %s\n", n.GeneratedAt.Format(time.RFC3339))
	if len(n.Factors) > 0 {
		b.WriteString("Top factors:\n")
		for _, f := range n.Factors {
			fmt.Fprintf(&b, "  %s: %+.4f\n", f.Dimension, f.Contribution)
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// Channel delivers a notification to one destination. Implementations must
// be safe for concurrent use.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// console writes alerts to the structured log. It is the default channel and
// cannot fail.
type console struct {
	logger *slog.Logger
}

// NewConsoleChannel creates a channel that emits alerts as log records.
func NewConsoleChannel(logger *slog.Logger) Channel {
	return &console{logger: logger.With("channel", "console")}
}

func (c *console) Name() string { return "console" }

func (c *console) Send(ctx context.Context, n Notification) error {
	c.logger.WarnContext(ctx, "burnout risk alert",
		"rule", n.RuleID,
		"user", n.UserID,
		"risk_score", n.RiskScore,
		"risk_band", string(n.RiskBand),
		"factors", factorSummary(n.Factors),
	)
	return nil
}

func factorSummary(factors []predictions.Factor) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		parts = append(parts, fmt.Sprintf("%s=%+.4f", f.Dimension, f.Contribution))
	}
	return strings.Join(parts, " ")
}
