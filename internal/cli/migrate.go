package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				if err := app.Gateway.Ping(ctx); err != nil {
					return err
				}
				return app.Gateway.Migrate(ctx)
			})
		},
	}
}
