package features

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/burnwatch/burnwatch/internal/records"
)

// Processor recomputes per-user trailing-window vectors. Recomputation is
// eager but gated by freshness: a window is redone only when the user has
// scored records newer than the stored vector's computation timestamp.
type Processor struct {
	cfg     *Config
	records records.System
	store   Store
	logger  *slog.Logger
}

// NewProcessor creates a feature stage processor.
func NewProcessor(cfg *Config, recs records.System, store Store, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:     cfg,
		records: recs,
		store:   store,
		logger:  logger.With("system", "features"),
	}
}

// WindowEnd normalizes asOf to the end of its UTC day so reruns within one
// day share vector keys.
func WindowEnd(asOf time.Time) time.Time {
	return asOf.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}

// RecomputeWindows computes vectors for every (user, window) pair ending at
// asOf's normalized window end. Users below the configured minimum record
// count in a window are skipped without error.
func (p *Processor) RecomputeWindows(ctx context.Context, asOf time.Time) (Result, error) {
	windowEnd := WindowEnd(asOf)

	activity, err := p.records.UserActivity(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("user activity: %w", err)
	}

	var res Result
	computedAt := time.Now().UTC()

	for _, user := range activity {
		for _, days := range p.cfg.WindowDays {
			fresh, err := p.isFresh(ctx, user, days, windowEnd)
			if err != nil {
				return res, err
			}
			if fresh {
				res.Skipped++
				continue
			}

			windowStart := windowEnd.AddDate(0, 0, -days)
			recs, err := p.records.ListScored(ctx, user.UserID, windowStart, windowEnd)
			if err != nil {
				return res, fmt.Errorf("scored records for %s: %w", user.UserID, err)
			}

			if len(recs) < p.cfg.MinRecords {
				res.Skipped++
				continue
			}

			v := aggregate(recs)
			v.UserID = user.UserID
			v.WindowDays = days
			v.WindowStart = windowStart
			v.WindowEnd = windowEnd
			v.ComputedAt = computedAt

			if err := p.store.Upsert(ctx, v); err != nil {
				return res, err
			}
			res.Written++
		}
	}

	p.logger.Info("feature stage complete",
		"window_end", windowEnd,
		"written", res.Written,
		"skipped", res.Skipped,
	)
	return res, nil
}

// isFresh reports whether the stored vector already reflects all of the
// user's scored records.
func (p *Processor) isFresh(ctx context.Context, user records.UserActivity, days int, windowEnd time.Time) (bool, error) {
	existing, err := p.store.Find(ctx, user.UserID, days, windowEnd)
	if err != nil {
		return false, err
	}
	return existing != nil && !user.LastScoredAt.After(existing.ComputedAt), nil
}

// aggregate computes the window statistics from scored records ordered by
// recording time.
func aggregate(recs []records.ScoredRecord) Vector {
	n := float64(len(recs))

	var sum float64
	var keywordHits int
	for _, r := range recs {
		sum += r.Score
		keywordHits += len(r.Keywords)
	}
	mean := sum / n

	var sqDiff float64
	for _, r := range recs {
		d := r.Score - mean
		sqDiff += d * d
	}

	return Vector{
		MeanSentiment:       mean,
		TrendSlope:          trendSlope(recs),
		RecordCount:         len(recs),
		NegativeKeywordFreq: float64(keywordHits) / n,
		Volatility:          math.Sqrt(sqDiff / n),
	}
}

// trendSlope fits a least-squares line of score against time-in-days from
// the first record. Fewer than two records yield a zero slope.
func trendSlope(recs []records.ScoredRecord) float64 {
	if len(recs) < 2 {
		return 0
	}

	origin := recs[0].RecordedAt
	n := float64(len(recs))

	var sumX, sumY, sumXY, sumXX float64
	for _, r := range recs {
		x := r.RecordedAt.Sub(origin).Hours() / 24
		y := r.Score
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
