package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/burnwatch/burnwatch/internal/predictions"
)

const statusSent = "sent"

// Manager evaluates rules against predictions and dispatches notifications.
type Manager struct {
	store    Store
	rules    []Rule
	channels map[string]Channel
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates an alert manager over the given rules and channels.
func NewManager(store Store, rules []Rule, channels []Channel, logger *slog.Logger) *Manager {
	byName := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}

	return &Manager{
		store:    store,
		rules:    rules,
		channels: byName,
		logger:   logger.With("system", "alerts"),
		now:      time.Now,
	}
}

// EvaluateAndDispatch applies every rule to every prediction. An alert fires
// when the prediction's band meets the rule threshold and the rule has not
// fired for that user within its cooldown. Channel delivery failures are
// recorded per channel and never abort the stage; storage failures do.
func (m *Manager) EvaluateAndDispatch(ctx context.Context, preds []predictions.Prediction) (Result, error) {
	var result Result
	for _, p := range preds {
		for _, rule := range m.rules {
			if !p.RiskBand.AtLeast(rule.MinBand) {
				continue
			}

			last, fired, err := m.store.LastTriggered(ctx, p.UserID, rule.ID)
			if err != nil {
				return result, err
			}

			now := m.now().UTC()
			if fired && now.Sub(last) < rule.Cooldown {
				result.Suppressed++
				m.logger.DebugContext(ctx, "alert suppressed by cooldown",
					"rule", rule.ID, "user", p.UserID, "last_triggered", last)
				continue
			}

			status, failures := m.dispatch(ctx, rule, p)
			result.Failures += failures

			record := Record{
				UserID:        p.UserID,
				RuleID:        rule.ID,
				TriggeredAt:   now,
				RiskBand:      p.RiskBand,
				ChannelStatus: status,
			}
			if err := m.store.Insert(ctx, record); err != nil {
				return result, err
			}
			result.Triggered++
		}
	}

	m.logger.InfoContext(ctx, "alert stage complete",
		"triggered", result.Triggered,
		"suppressed", result.Suppressed,
		"channel_failures", result.Failures,
	)

	return result, nil
}

// dispatch sends the notification to each of the rule's channels, isolating
// failures so one broken channel never blocks another.
func (m *Manager) dispatch(ctx context.Context, rule Rule, p predictions.Prediction) (map[string]string, int) {
	n := Notification{
		UserID:      p.UserID,
		RuleID:      rule.ID,
		RiskScore:   p.RiskScore,
		RiskBand:    p.RiskBand,
		Factors:     p.Factors,
		GeneratedAt: p.GeneratedAt,
	}

	status := make(map[string]string, len(rule.Channels))
	failures := 0
	for _, name := range rule.Channels {
		ch, ok := m.channels[name]
		if !ok {
			status[name] = ErrUnknownChannel.Error()
			failures++
			m.logger.WarnContext(ctx, "alert channel not registered",
				"rule", rule.ID, "channel", name)
			continue
		}

		if err := ch.Send(ctx, n); err != nil {
			status[name] = err.Error()
			failures++
			m.logger.WarnContext(ctx, "alert delivery failed",
				"rule", rule.ID, "channel", name, "user", p.UserID, "error", err)
			continue
		}
		status[name] = statusSent
	}
	return status, failures
}
