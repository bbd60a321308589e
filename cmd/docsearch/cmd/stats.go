package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print index and snapshot statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			stats := app.engine.Stats()
			info := app.store.Info()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "documents:      %d\n", stats.DocumentCount)
			fmt.Fprintf(out, "unique terms:   %d\n", stats.TermCount)
			fmt.Fprintf(out, "total postings: %d\n", stats.TotalPostings)
			if info.PrimaryExists {
				fmt.Fprintf(out, "snapshot:       %d bytes, saved %s\n",
					info.PrimarySize, info.PrimaryModTime.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "snapshot:       none")
			}
			fmt.Fprintf(out, "backups:        %d\n", info.BackupCount)
			return nil
		},
	}
}
