package risk

import "strings"

// HeuristicLabels assigns synthetic training labels from threshold counts
// over the named feature dimensions. It stands in when no labelled data
// exists; a vector is labelled high-risk when at least MinIndicators of the
// threshold checks fire.
type HeuristicLabels struct {
	LowSentiment   float64
	NegativeTrend  float64
	KeywordFreq    float64
	HighVolatility float64
	MinIndicators  int
}

// DefaultHeuristicLabels returns the built-in thresholds.
func DefaultHeuristicLabels() *HeuristicLabels {
	return &HeuristicLabels{
		LowSentiment:   0.4,
		NegativeTrend:  -0.005,
		KeywordFreq:    1.0,
		HighVolatility: 0.25,
		MinIndicators:  2,
	}
}

// Label implements LabelSource.
func (h *HeuristicLabels) Label(dims []string, values []float64) (float64, bool) {
	if len(dims) != len(values) {
		return 0, false
	}

	indicators := 0
	for i, dim := range dims {
		v := values[i]
		switch {
		case strings.HasPrefix(dim, "mean_sentiment") && v < h.LowSentiment:
			indicators++
		case strings.HasPrefix(dim, "trend_slope") && v < h.NegativeTrend:
			indicators++
		case strings.HasPrefix(dim, "negative_keyword_freq") && v > h.KeywordFreq:
			indicators++
		case strings.HasPrefix(dim, "volatility") && v > h.HighVolatility:
			indicators++
		}
	}

	if indicators >= h.MinIndicators {
		return 1, true
	}
	return 0, true
}
