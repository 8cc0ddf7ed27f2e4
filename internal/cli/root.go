// Package cli defines the burnwatch command tree.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burnwatch",
		Short: "Batch burnout-risk analytics pipeline",
		Long: `burnwatch ingests anonymized wellbeing records, scores their sentiment,
aggregates per-user feature windows, predicts burnout risk, and dispatches
deduplicated alerts. All state lives in the configured warehouse; reruns
are idempotent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newRunCmd(),
		newMigrateCmd(),
		newTrainCmd(),
		newSeedCmd(),
		newModelCmd(),
		newUnlockCmd(),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the CLI with signal-aware cancellation.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
