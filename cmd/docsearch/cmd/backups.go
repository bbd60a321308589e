package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backup snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			backups := app.store.ListBackups()
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintln(out, "no backups")
				return nil
			}
			for i, name := range backups {
				fmt.Fprintf(out, "%d: %s\n", i, name)
			}
			return nil
		},
	}
}
