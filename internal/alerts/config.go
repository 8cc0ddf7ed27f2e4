package alerts

import (
	"fmt"
	"os"
	"time"

	"github.com/burnwatch/burnwatch/internal/predictions"
)

type RuleConfig struct {
	ID       string   `toml:"id"`
	MinBand  string   `toml:"min_band"`
	Cooldown string   `toml:"cooldown"`
	Channels []string `toml:"channels"`
}

// Rule converts the configuration into a runtime rule.
func (r *RuleConfig) Rule() Rule {
	cooldown, _ := time.ParseDuration(r.Cooldown)
	return Rule{
		ID:       r.ID,
		MinBand:  predictions.Band(r.MinBand),
		Cooldown: cooldown,
		Channels: r.Channels,
	}
}

type EmailConfig struct {
	Host string   `toml:"host"`
	Port int      `toml:"port"`
	From string   `toml:"from"`
	To   []string `toml:"to"`
}

type WebhookConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *WebhookConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID int64  `toml:"chat_id"`
}

type Config struct {
	Rules    []RuleConfig   `toml:"rules"`
	Email    EmailConfig    `toml:"email"`
	Webhook  WebhookConfig  `toml:"webhook"`
	Telegram TelegramConfig `toml:"telegram"`
}

// Env names the environment variables that override alert configuration.
type Env struct {
	TelegramToken string
	WebhookURL    string
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(config *Config) {
	if len(config.Rules) > 0 {
		c.Rules = config.Rules
	}

	if config.Email.Host != "" {
		c.Email.Host = config.Email.Host
	}

	if config.Email.Port > 0 {
		c.Email.Port = config.Email.Port
	}

	if config.Email.From != "" {
		c.Email.From = config.Email.From
	}

	if len(config.Email.To) > 0 {
		c.Email.To = config.Email.To
	}

	if config.Webhook.URL != "" {
		c.Webhook.URL = config.Webhook.URL
	}

	if config.Webhook.Timeout != "" {
		c.Webhook.Timeout = config.Webhook.Timeout
	}

	if config.Telegram.Token != "" {
		c.Telegram.Token = config.Telegram.Token
	}

	if config.Telegram.ChatID != 0 {
		c.Telegram.ChatID = config.Telegram.ChatID
	}
}

func (c *Config) loadDefaults() {
	if len(c.Rules) == 0 {
		c.Rules = []RuleConfig{{
			ID:       "high-risk",
			MinBand:  string(predictions.BandHigh),
			Cooldown: "24h",
			Channels: []string{"console"},
		}}
	}

	for i := range c.Rules {
		if c.Rules[i].Cooldown == "" {
			c.Rules[i].Cooldown = "24h"
		}
		if len(c.Rules[i].Channels) == 0 {
			c.Rules[i].Channels = []string{"console"}
		}
	}

	if c.Webhook.Timeout == "" {
		c.Webhook.Timeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.TelegramToken != "" {
		if v := os.Getenv(env.TelegramToken); v != "" {
			c.Telegram.Token = v
		}
	}

	if env.WebhookURL != "" {
		if v := os.Getenv(env.WebhookURL); v != "" {
			c.Webhook.URL = v
		}
	}
}

func (c *Config) validate() error {
	for _, r := range c.Rules {
		if r.ID == "" {
			return fmt.Errorf("alert rule requires an id: %w", ErrInvalid)
		}

		if predictions.Band(r.MinBand).Rank() < 0 {
			return fmt.Errorf("alert rule %s: unknown band %q: %w", r.ID, r.MinBand, ErrInvalid)
		}

		if _, err := time.ParseDuration(r.Cooldown); err != nil {
			return fmt.Errorf("alert rule %s: invalid cooldown: %w", r.ID, err)
		}
	}

	if _, err := time.ParseDuration(c.Webhook.Timeout); err != nil {
		return fmt.Errorf("invalid webhook timeout: %w", err)
	}

	return nil
}

// RuntimeRules converts every configured rule.
func (c *Config) RuntimeRules() []Rule {
	rules := make([]Rule, 0, len(c.Rules))
	for i := range c.Rules {
		rules = append(rules, c.Rules[i].Rule())
	}
	return rules
}
