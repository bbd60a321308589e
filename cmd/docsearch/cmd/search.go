package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Run a ranked keyword query against the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			results, err := app.engine.Search(query, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. %s (score %.4f)\n", i+1, r.DocID, r.Score)
				if r.Title != "" {
					fmt.Fprintf(out, "   title: %s\n", r.Title)
				}
				if r.Author != "" {
					fmt.Fprintf(out, "   author: %s\n", r.Author)
				}
				if r.Snippet != "" {
					fmt.Fprintf(out, "   %s\n", r.Snippet)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 = configured default)")
	return cmd
}
