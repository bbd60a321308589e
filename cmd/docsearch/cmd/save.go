package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Force a snapshot checkpoint",
		Long: `Save loads the index from disk and writes it back as a fresh primary
snapshot, rotating the previous primary into the backup set. This is the
operator-facing checkpoint hook for external schedulers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			if err := app.checkpoint(); err != nil {
				return err
			}
			stats := app.engine.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "saved snapshot (%d documents, %d terms)\n",
				stats.DocumentCount, stats.TermCount)
			return nil
		},
	}
}
