package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burnwatch/burnwatch/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the burnwatch version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Println(cfg.Version)
			return nil
		},
	}
}
