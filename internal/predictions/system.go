package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/burnwatch/burnwatch/internal/features"
	"github.com/burnwatch/burnwatch/internal/risk"
	"github.com/burnwatch/burnwatch/pkg/blobstore"
)

// System defines the prediction domain operations.
type System interface {
	// Train fits a new model version on all stored feature vectors, persists
	// it as an immutable artifact, and activates it. Returns
	// ErrInsufficientData when fewer labeled samples exist than the
	// configured minimum.
	Train(ctx context.Context, source risk.LabelSource) (*ModelArtifact, error)

	// Predict generates predictions for every user with a complete feature
	// vector set for the window ending at asOf, skipping users whose
	// features have not changed since their latest prediction. Returns
	// ErrModelNotTrained when no model has been activated.
	Predict(ctx context.Context, asOf time.Time) (Result, error)

	// Active returns the currently active model artifact.
	Active(ctx context.Context) (ModelArtifact, error)

	// Find returns the artifact with the given version, active or not.
	// Returns ErrArtifactNotFound when the warehouse has no such version.
	Find(ctx context.Context, version string) (ModelArtifact, error)

	// Latest returns the most recent prediction per user.
	Latest(ctx context.Context) ([]Prediction, error)
}

type system struct {
	store    Store
	features features.Store
	archive  blobstore.Archive
	windows  []int
	config   *Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewSystem creates the prediction system. archive may be nil, in which case
// trained artifacts are kept only in the warehouse.
func NewSystem(
	store Store,
	featureStore features.Store,
	archive blobstore.Archive,
	windowDays []int,
	config *Config,
	logger *slog.Logger,
) System {
	windows := make([]int, len(windowDays))
	copy(windows, windowDays)
	sort.Ints(windows)

	return &system{
		store:    store,
		features: featureStore,
		archive:  archive,
		windows:  windows,
		config:   config,
		logger:   logger.With("system", "predictions"),
		now:      time.Now,
	}
}

func (s *system) Train(ctx context.Context, source risk.LabelSource) (*ModelArtifact, error) {
	vecs, err := s.features.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	dims := Dims(s.windows)
	groups := groupVectors(vecs)

	var samples [][]float64
	var labels []float64
	for _, g := range groups {
		values, ok := assemble(dims, g.byWindow)
		if !ok {
			continue
		}

		label, ok := source.Label(dims, values)
		if !ok {
			continue
		}

		samples = append(samples, values)
		labels = append(labels, label)
	}

	if len(samples) < s.config.MinTrainSamples {
		return nil, fmt.Errorf("%d labeled samples, need %d: %w",
			len(samples), s.config.MinTrainSamples, ErrInsufficientData)
	}

	model, metrics, err := risk.TrainLogistic(samples, labels, risk.TrainOptions{})
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	artifact := ModelArtifact{
		Version:     uuid.NewString(),
		TrainedAt:   s.now().UTC(),
		SampleCount: len(samples),
		Metrics:     metrics,
		Payload: payload{
			Dims:  dims,
			Model: *model,
		},
	}

	if err := s.store.SaveArtifact(ctx, artifact); err != nil {
		return nil, err
	}

	s.archiveArtifact(ctx, artifact)

	s.logger.InfoContext(ctx, "model trained",
		"version", artifact.Version,
		"samples", artifact.SampleCount,
		"train_accuracy", metrics.TrainAccuracy,
		"holdout_accuracy", metrics.HoldoutAccuracy,
	)

	return &artifact, nil
}

// ArchiveKey returns the blob key under which an artifact version is
// archived.
func ArchiveKey(version string) string {
	return fmt.Sprintf("models/%s.json", version)
}

// archiveArtifact exports the artifact to the blob archive. Archive failures
// are logged and do not fail training; the warehouse copy is authoritative.
func (s *system) archiveArtifact(ctx context.Context, artifact ModelArtifact) {
	if s.archive == nil {
		return
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		s.logger.WarnContext(ctx, "marshal artifact for archive", "error", err)
		return
	}

	if err := s.archive.Put(ctx, ArchiveKey(artifact.Version), data, "application/json"); err != nil {
		s.logger.WarnContext(ctx, "archive artifact",
			"version", artifact.Version, "error", err)
	}
}

func (s *system) Predict(ctx context.Context, asOf time.Time) (Result, error) {
	artifact, err := s.store.ActiveArtifact(ctx)
	if err != nil {
		return Result{}, err
	}

	windowEnd := features.WindowEnd(asOf)
	vecs, err := s.features.ListForWindowEnd(ctx, windowEnd)
	if err != nil {
		return Result{}, err
	}

	latest, err := s.store.LatestPerUser(ctx)
	if err != nil {
		return Result{}, err
	}

	basedOnLatest := make(map[string]time.Time, len(latest))
	for _, p := range latest {
		basedOnLatest[p.UserID] = p.BasedOn
	}

	model := artifact.Payload.Model
	dims := artifact.Payload.Dims
	generatedAt := s.now().UTC()

	var result Result
	for _, g := range groupVectors(vecs) {
		values, ok := assemble(dims, g.byWindow)
		if !ok {
			result.Skipped++
			continue
		}

		basedOn := newestComputedAt(g.byWindow)
		if prev, found := basedOnLatest[g.userID]; found && !basedOn.After(prev) {
			result.Skipped++
			continue
		}

		prob, contributions, err := model.Predict(values)
		if err != nil {
			return result, fmt.Errorf("predict for user %s: %w", g.userID, err)
		}

		prediction := Prediction{
			UserID:       g.userID,
			GeneratedAt:  generatedAt,
			ModelVersion: artifact.Version,
			RiskScore:    prob,
			RiskBand:     BandFor(prob, s.config.Bands),
			Factors:      topFactors(dims, contributions, s.config.TopFactors),
			BasedOn:      basedOn,
		}

		if err := s.store.InsertPrediction(ctx, prediction); err != nil {
			return result, err
		}
		result.Predicted++
	}

	s.logger.InfoContext(ctx, "prediction stage complete",
		"predicted", result.Predicted,
		"skipped", result.Skipped,
		"model_version", artifact.Version,
	)

	return result, nil
}

func (s *system) Active(ctx context.Context) (ModelArtifact, error) {
	return s.store.ActiveArtifact(ctx)
}

func (s *system) Find(ctx context.Context, version string) (ModelArtifact, error) {
	return s.store.FindArtifact(ctx, version)
}

func (s *system) Latest(ctx context.Context) ([]Prediction, error) {
	return s.store.LatestPerUser(ctx)
}

// group collects one user's vectors for a single window end, keyed by window
// length.
type group struct {
	userID   string
	byWindow map[int]features.Vector
}

// groupVectors buckets vectors by (user, window end), preserving first-seen
// order so callers iterate deterministically.
func groupVectors(vecs []features.Vector) []group {
	type key struct {
		userID string
		end    int64
	}

	index := make(map[key]int)
	var groups []group
	for _, v := range vecs {
		k := key{userID: v.UserID, end: v.WindowEnd.UnixMilli()}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{
				userID:   v.UserID,
				byWindow: make(map[int]features.Vector),
			})
		}
		groups[i].byWindow[v.WindowDays] = v
	}
	return groups
}

// assemble builds the model input vector in dimension order from a user's
// windowed vectors. Returns false when any dimension is missing.
func assemble(dims []string, byWindow map[int]features.Vector) ([]float64, bool) {
	lookup := make(map[string]float64, len(dims))
	for days, v := range byWindow {
		lookup[fmt.Sprintf("mean_sentiment_%dd", days)] = v.MeanSentiment
		lookup[fmt.Sprintf("trend_slope_%dd", days)] = v.TrendSlope
		lookup[fmt.Sprintf("record_count_%dd", days)] = float64(v.RecordCount)
		lookup[fmt.Sprintf("negative_keyword_freq_%dd", days)] = v.NegativeKeywordFreq
		lookup[fmt.Sprintf("volatility_%dd", days)] = v.Volatility
	}

	values := make([]float64, len(dims))
	for i, dim := range dims {
		value, ok := lookup[dim]
		if !ok {
			return nil, false
		}
		values[i] = value
	}
	return values, true
}

func newestComputedAt(byWindow map[int]features.Vector) time.Time {
	var newest time.Time
	for _, v := range byWindow {
		if v.ComputedAt.After(newest) {
			newest = v.ComputedAt
		}
	}
	return newest
}

// topFactors ranks dimensions by contribution, highest first. Ties keep
// dimension declaration order.
func topFactors(dims []string, contributions []float64, limit int) []Factor {
	factors := make([]Factor, len(dims))
	for i := range dims {
		factors[i] = Factor{Dimension: dims[i], Contribution: contributions[i]}
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Contribution > factors[j].Contribution
	})

	if limit > 0 && len(factors) > limit {
		factors = factors[:limit]
	}
	return factors
}
