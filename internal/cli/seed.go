package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burnwatch/burnwatch/internal/records"
)

func newSeedCmd() *cobra.Command {
	opts := records.SampleOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Ingest deterministic synthetic survey records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				if err := app.Gateway.Migrate(ctx); err != nil {
					return err
				}

				sample := records.GenerateSample(opts, app.Hasher)
				inserted, err := app.Records.Ingest(ctx, sample)
				if err != nil {
					return err
				}

				fmt.Printf("seeded %d records (%d new)\n", len(sample), inserted)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Users, "users", 10, "number of synthetic users")
	cmd.Flags().IntVar(&opts.RecordsPerUser, "records", 5, "records per user")
	cmd.Flags().IntVar(&opts.Days, "days", 14, "span of days the records cover")
	cmd.Flags().IntVar(&opts.NegativeUsers, "negative", 3, "users with consistently negative records")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "random seed")

	return cmd
}
