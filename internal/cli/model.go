package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burnwatch/burnwatch/internal/predictions"
)

func newModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model [version]",
		Short: "Inspect the active model, or a specific version by its id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				artifact, origin, err := loadArtifact(ctx, app, args)
				if err != nil {
					return err
				}

				fmt.Printf("model %s (%s)\n", artifact.Version, origin)
				fmt.Printf("  trained at:       %s\n", artifact.TrainedAt.Format("2006-01-02 15:04:05 MST"))
				fmt.Printf("  samples:          %d\n", artifact.SampleCount)
				fmt.Printf("  train accuracy:   %.3f\n", artifact.Metrics.TrainAccuracy)
				fmt.Printf("  holdout accuracy: %.3f\n", artifact.Metrics.HoldoutAccuracy)

				if app.Archive != nil {
					archived, err := app.Archive.Exists(ctx, predictions.ArchiveKey(artifact.Version))
					if err != nil {
						return err
					}
					fmt.Printf("  archived:         %t\n", archived)
				}
				return nil
			})
		},
	}
}

// loadArtifact resolves the requested artifact. A version missing from the
// warehouse falls back to its archived copy when an archive is configured,
// so pruned versions stay auditable.
func loadArtifact(ctx context.Context, app *App, args []string) (predictions.ModelArtifact, string, error) {
	if len(args) == 0 {
		artifact, err := app.Predictions.Active(ctx)
		return artifact, "active", err
	}

	version := args[0]
	artifact, err := app.Predictions.Find(ctx, version)
	if err == nil {
		return artifact, "warehouse", nil
	}
	if !errors.Is(err, predictions.ErrArtifactNotFound) || app.Archive == nil {
		return predictions.ModelArtifact{}, "", err
	}

	data, archiveErr := app.Archive.Get(ctx, predictions.ArchiveKey(version))
	if archiveErr != nil {
		return predictions.ModelArtifact{}, "", err
	}
	if jsonErr := json.Unmarshal(data, &artifact); jsonErr != nil {
		return predictions.ModelArtifact{}, "", fmt.Errorf("decode archived artifact %s: %w", version, jsonErr)
	}
	return artifact, "archive", nil
}
