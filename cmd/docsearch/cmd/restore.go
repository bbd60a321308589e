package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/mojitote/docsearch/pkg/errors"
)

func newRestoreCmd() *cobra.Command {
	var promote bool

	cmd := &cobra.Command{
		Use:   "restore N",
		Short: "Recover the index from the N-th newest backup",
		Long: `Restore loads the N-th newest backup snapshot (0 = newest), bypassing
the primary. With --promote, the recovered state is written back as the new
primary snapshot; without it, the recovered state is only inspected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: backup index %q is not a number", apperrors.ErrInvalidInput, args[0])
			}
			app, err := openApp()
			if err != nil {
				return err
			}
			snap, err := app.store.RestoreFromBackup(n)
			if err != nil {
				return err
			}
			if err := app.engine.Restore(snap); err != nil {
				return err
			}
			stats := app.engine.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "restored backup %d (%d documents, %d terms)\n",
				n, stats.DocumentCount, stats.TermCount)
			if promote {
				if err := app.checkpoint(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "promoted to primary snapshot")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&promote, "promote", false, "write the recovered state back as the primary snapshot")
	return cmd
}
