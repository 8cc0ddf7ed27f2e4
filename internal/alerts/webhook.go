package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// webhook POSTs alerts as JSON to a configured endpoint.
type webhook struct {
	url    string
	client *http.Client
}

// NewWebhookChannel creates an HTTP webhook alert channel.
func NewWebhookChannel(cfg WebhookConfig) Channel {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhook{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *webhook) Name() string { return "webhook" }

func (w *webhook) Send(ctx context.Context, n Notification) error {
	if w.url == "" {
		return fmt.Errorf("webhook channel not configured")
	}

	body, err := json.Marshal(map[string]any{
		"rule_id":      n.RuleID,
		"user_id_hash": n.UserID,
		"risk_score":   n.RiskScore,
		"risk_band":    n.RiskBand,
		"factors":      n.Factors,
		"generated_at": n.GeneratedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
