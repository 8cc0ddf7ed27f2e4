package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Force-release the run lock left behind by a crashed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				if err := app.Pipeline.Unlock(ctx); err != nil {
					return err
				}
				cmd.Println("run lock released")
				return nil
			})
		},
	}
}
