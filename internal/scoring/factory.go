package scoring

import (
	"fmt"
	"strings"
)

// NewScorer creates the configured provider.
func NewScorer(cfg *Config) (Scorer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "lexicon", "":
		return newLexiconScorer(cfg), nil
	case "openai":
		return newOpenAIScorer(cfg)
	default:
		return nil, fmt.Errorf("unknown scoring provider: %s (supported: lexicon, openai)", cfg.Provider)
	}
}
