package scoring

import (
	"fmt"
	"os"
	"time"
)

// Thresholds are the label-ladder cut points applied to a bounded score.
type Thresholds struct {
	VeryNegative float64 `toml:"very_negative"`
	Negative     float64 `toml:"negative"`
	Neutral      float64 `toml:"neutral"`
	Positive     float64 `toml:"positive"`
}

// Config parameterizes the scoring capability.
type Config struct {
	Provider   string              `toml:"provider"`
	MinScore   float64             `toml:"min_score"`
	MaxScore   float64             `toml:"max_score"`
	Timeout    string              `toml:"timeout"`
	Thresholds Thresholds          `toml:"thresholds"`
	Keywords   map[string][]string `toml:"keywords"`
	OpenAI     OpenAIConfig        `toml:"openai"`
}

// OpenAIConfig holds parameters for the OpenAI-backed scorer.
type OpenAIConfig struct {
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CacheTTL          string  `toml:"cache_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider     string
	OpenAIAPIKey string
	OpenAIModel  string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *OpenAIConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.MaxScore != 0 {
		c.MaxScore = overlay.MaxScore
	}
	if overlay.MinScore != 0 {
		c.MinScore = overlay.MinScore
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Thresholds != (Thresholds{}) {
		c.Thresholds = overlay.Thresholds
	}
	if len(overlay.Keywords) > 0 {
		c.Keywords = overlay.Keywords
	}
	if overlay.OpenAI.APIKey != "" {
		c.OpenAI.APIKey = overlay.OpenAI.APIKey
	}
	if overlay.OpenAI.Model != "" {
		c.OpenAI.Model = overlay.OpenAI.Model
	}
	if overlay.OpenAI.BaseURL != "" {
		c.OpenAI.BaseURL = overlay.OpenAI.BaseURL
	}
	if overlay.OpenAI.RequestsPerSecond != 0 {
		c.OpenAI.RequestsPerSecond = overlay.OpenAI.RequestsPerSecond
	}
	if overlay.OpenAI.CacheTTL != "" {
		c.OpenAI.CacheTTL = overlay.OpenAI.CacheTTL
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = "lexicon"
	}
	if c.MaxScore == 0 {
		c.MaxScore = 1.0
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.Thresholds == (Thresholds{}) {
		// Scale the default cut points to the configured score range so
		// non-unit bounds still get a usable label ladder.
		span := c.MaxScore - c.MinScore
		c.Thresholds = Thresholds{
			VeryNegative: c.MinScore + 0.2*span,
			Negative:     c.MinScore + 0.4*span,
			Neutral:      c.MinScore + 0.6*span,
			Positive:     c.MinScore + 0.8*span,
		}
	}
	if len(c.Keywords) == 0 {
		c.Keywords = DefaultKeywords()
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.RequestsPerSecond == 0 {
		c.OpenAI.RequestsPerSecond = 2
	}
	if c.OpenAI.CacheTTL == "" {
		c.OpenAI.CacheTTL = "1h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.OpenAIAPIKey != "" {
		if v := os.Getenv(env.OpenAIAPIKey); v != "" {
			c.OpenAI.APIKey = v
		}
	}
	if env.OpenAIModel != "" {
		if v := os.Getenv(env.OpenAIModel); v != "" {
			c.OpenAI.Model = v
		}
	}
}

func (c *Config) validate() error {
	if c.MinScore >= c.MaxScore {
		return fmt.Errorf("min_score must be below max_score")
	}
	t := c.Thresholds
	if !(t.VeryNegative < t.Negative && t.Negative < t.Neutral && t.Neutral < t.Positive) {
		return fmt.Errorf("thresholds must be strictly ascending")
	}
	if t.VeryNegative <= c.MinScore || t.Positive >= c.MaxScore {
		return fmt.Errorf("thresholds must lie inside (min_score, max_score)")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.OpenAI.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	return nil
}

// DefaultKeywords returns the built-in indicator lexicon grouped by indicator.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"stress":     {"stressed", "stress", "pressure", "overwhelmed", "deadlines"},
		"anxiety":    {"anxious", "anxiety", "worried", "worrying", "nervous", "sleepless"},
		"depression": {"hopeless", "empty", "worthless", "miserable", "dreading"},
		"burnout":    {"burned out", "burnout", "exhausted", "drained", "worn out", "overworked"},
	}
}
