package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burnwatch/burnwatch/internal/risk"
)

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train and activate a new risk model version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				if err := app.Gateway.Migrate(ctx); err != nil {
					return err
				}

				if app.Archive != nil {
					if err := app.Archive.Init(ctx); err != nil {
						return err
					}
				}

				artifact, err := app.Predictions.Train(ctx, risk.DefaultHeuristicLabels())
				if err != nil {
					return err
				}

				fmt.Printf("trained model %s\n", artifact.Version)
				fmt.Printf("  samples:          %d\n", artifact.SampleCount)
				fmt.Printf("  train accuracy:   %.3f\n", artifact.Metrics.TrainAccuracy)
				fmt.Printf("  holdout accuracy: %.3f\n", artifact.Metrics.HoldoutAccuracy)
				return nil
			})
		},
	}
}
