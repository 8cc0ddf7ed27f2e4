package alerts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// email delivers alerts over plain SMTP.
type email struct {
	cfg  EmailConfig
	send func(addr, from string, to []string, msg []byte) error
}

// NewEmailChannel creates an SMTP alert channel.
func NewEmailChannel(cfg EmailConfig) Channel {
	return &email{
		cfg: cfg,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

func (e *email) Name() string { return "email" }

func (e *email) Send(ctx context.Context, n Notification) error {
	if e.cfg.Host == "" || len(e.cfg.To) == 0 {
		return fmt.Errorf("email channel not configured")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", n.Subject())
	msg.WriteString("\r\n")
	msg.WriteString(n.Body())

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, e.cfg.From, e.cfg.To, []byte(msg.String())); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}
