package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/burnwatch/burnwatch/internal/alerts"
	"github.com/burnwatch/burnwatch/internal/config"
	"github.com/burnwatch/burnwatch/internal/features"
	"github.com/burnwatch/burnwatch/internal/pipeline"
	"github.com/burnwatch/burnwatch/internal/predictions"
	"github.com/burnwatch/burnwatch/internal/records"
	"github.com/burnwatch/burnwatch/internal/scoring"
	"github.com/burnwatch/burnwatch/internal/sentiment"
	"github.com/burnwatch/burnwatch/pkg/anonymize"
	"github.com/burnwatch/burnwatch/pkg/blobstore"
	"github.com/burnwatch/burnwatch/pkg/storage"
)

// App holds the wired systems shared by the CLI commands.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Gateway     storage.Gateway
	Hasher      *anonymize.Hasher
	Records     records.System
	Features    features.Store
	Predictions predictions.System
	Pipeline    *pipeline.Orchestrator
	Archive     blobstore.Archive
}

// newApp loads configuration and wires every system over one gateway.
func newApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	gateway, err := storage.Open(&cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	db := gateway.DB()
	recordSystem := records.New(db, logger)
	featureStore := features.NewStore(db, logger)

	var archive blobstore.Archive
	if cfg.Archive.Enabled {
		archive, err = blobstore.New(&cfg.Archive, logger)
		if err != nil {
			gateway.Close()
			return nil, err
		}
	}

	scorer, err := scoring.NewScorer(&cfg.Scoring)
	if err != nil {
		gateway.Close()
		return nil, err
	}

	predictionSystem := predictions.NewSystem(
		predictions.NewStore(db),
		featureStore,
		archive,
		cfg.Features.WindowDays,
		&cfg.Predictions,
		logger,
	)

	sentimentStage := sentiment.NewProcessor(
		recordSystem, scorer, cfg.Scoring.TimeoutDuration(), logger)
	featureStage := features.NewProcessor(&cfg.Features, recordSystem, featureStore, logger)
	alertManager := alerts.NewManager(
		alerts.NewStore(db),
		cfg.Alerts.RuntimeRules(),
		buildChannels(cfg, logger),
		logger,
	)

	orchestrator := pipeline.NewOrchestrator(
		pipeline.NewStore(db),
		sentimentStage,
		featureStage,
		predictionSystem,
		alertManager,
		logger,
	)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Gateway:     gateway,
		Hasher:      anonymize.NewHasher(cfg.AnonymizeSalt),
		Records:     recordSystem,
		Features:    featureStore,
		Predictions: predictionSystem,
		Pipeline:    orchestrator,
		Archive:     archive,
	}, nil
}

// buildChannels registers every channel with usable configuration. The
// console channel is always available.
func buildChannels(cfg *config.Config, logger *slog.Logger) []alerts.Channel {
	channels := []alerts.Channel{alerts.NewConsoleChannel(logger)}

	if cfg.Alerts.Email.Host != "" {
		channels = append(channels, alerts.NewEmailChannel(cfg.Alerts.Email))
	}

	if cfg.Alerts.Webhook.URL != "" {
		channels = append(channels, alerts.NewWebhookChannel(cfg.Alerts.Webhook))
	}

	if cfg.Alerts.Telegram.Token != "" {
		telegram, err := alerts.NewTelegramChannel(cfg.Alerts.Telegram)
		if err != nil {
			logger.Warn("telegram channel unavailable", "error", err)
		} else {
			channels = append(channels, telegram)
		}
	}

	return channels
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Gateway.Close()
}

// withApp wires an app, runs fn, and tears the app down afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, app *App) error) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}
