package scoring

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexiconScorer scores text from fixed valence word lists plus the configured
// indicator keywords. It needs no external service and is fully deterministic,
// which makes it the default provider.
type lexiconScorer struct {
	cfg      *Config
	positive []string
	negative []string
}

var positiveValence = []string{
	"good", "great", "productive", "enjoying", "energized", "energy",
	"focused", "happy", "rested", "balance", "calm", "learning",
}

var negativeValence = []string{
	"exhausted", "drained", "stressed", "anxious", "overwhelmed", "hopeless",
	"tired", "sleepless", "burned", "burnout", "dreading", "worthless",
	"empty", "miserable", "worrying", "overworked",
}

func newLexiconScorer(cfg *Config) Scorer {
	return &lexiconScorer{
		cfg:      cfg,
		positive: positiveValence,
		negative: negativeValence,
	}
}

func (l *lexiconScorer) Name() string {
	return "lexicon"
}

func (l *lexiconScorer) Score(_ context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{Score: midpoint(l.cfg), Label: LabelNeutral, Keywords: []string{}}, nil
	}

	lower := strings.ToLower(text)

	pos := countHits(lower, l.positive)
	neg := countHits(lower, l.negative)

	score := midpoint(l.cfg)
	if pos+neg > 0 {
		half := (l.cfg.MaxScore - l.cfg.MinScore) / 2
		score = midpoint(l.cfg) + half*float64(pos-neg)/float64(pos+neg)
	}
	score = clamp(score, l.cfg.MinScore, l.cfg.MaxScore)

	return Result{
		Score:    score,
		Label:    LabelFor(score, l.cfg.Thresholds),
		Keywords: extractKeywords(lower, l.cfg.Keywords),
	}, nil
}

func midpoint(cfg *Config) float64 {
	return (cfg.MinScore + cfg.MaxScore) / 2
}

func countHits(lower string, terms []string) int {
	hits := 0
	for _, term := range terms {
		hits += countTerm(lower, term)
	}
	return hits
}

// countTerm counts whole-word occurrences of term. Matching on word
// boundaries keeps "stress" from also firing inside "stressed".
func countTerm(lower, term string) int {
	hits := 0
	for start := 0; ; {
		i := strings.Index(lower[start:], term)
		if i < 0 {
			break
		}
		i += start
		if wordBoundary(lower, i, i+len(term)) {
			hits++
		}
		start = i + len(term)
	}
	return hits
}

func wordBoundary(s string, from, to int) bool {
	if from > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:from]); isWordRune(r) {
			return false
		}
	}
	if to < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[to:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// extractKeywords returns the configured indicator keywords present in the
// text, sorted for deterministic output.
func extractKeywords(lower string, groups map[string][]string) []string {
	seen := map[string]bool{}
	for _, keywords := range groups {
		for _, kw := range keywords {
			if countTerm(lower, kw) > 0 {
				seen[kw] = true
			}
		}
	}

	found := make([]string, 0, len(seen))
	for kw := range seen {
		found = append(found, kw)
	}
	sort.Strings(found)
	return found
}
