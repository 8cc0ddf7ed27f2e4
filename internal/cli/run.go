package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one full pipeline pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf := time.Now().UTC()
			if asOfFlag != "" {
				parsed, err := time.Parse(time.RFC3339, asOfFlag)
				if err != nil {
					return fmt.Errorf("invalid --as-of value: %w", err)
				}
				asOf = parsed.UTC()
			}

			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				if err := app.Gateway.Migrate(ctx); err != nil {
					return err
				}

				report, err := app.Pipeline.Run(ctx, asOf)
				if err != nil {
					return err
				}

				fmt.Printf("run %s: %s\n", report.RunID, report.Status)
				fmt.Printf("  sentiment:   scored=%d skipped=%d failed=%d\n",
					report.Sentiment.Scored, report.Sentiment.Skipped, report.Sentiment.Failed)
				fmt.Printf("  features:    written=%d skipped=%d\n",
					report.Features.Written, report.Features.Skipped)
				fmt.Printf("  predictions: predicted=%d skipped=%d\n",
					report.Predictions.Predicted, report.Predictions.Skipped)
				fmt.Printf("  alerts:      triggered=%d suppressed=%d failures=%d\n",
					report.Alerts.Triggered, report.Alerts.Suppressed, report.Alerts.Failures)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "pipeline reference time (RFC3339, default now)")

	return cmd
}
