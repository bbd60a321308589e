package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var docID string
	var title string
	var author string

	cmd := &cobra.Command{
		Use:   "add --id ID [FILE]",
		Short: "Index a document from a file or stdin",
		Long: `Add indexes the given content under --id and checkpoints the index.
Content is read from FILE, or from stdin when FILE is omitted or "-".
Re-adding an existing id replaces the old document entirely.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			app, err := openApp()
			if err != nil {
				return err
			}
			doc, err := app.engine.AddDocument(docID, content, title, author)
			if err != nil {
				return err
			}
			if err := app.checkpoint(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %s (%d tokens)\n", doc.ID, doc.TokenCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&docID, "id", "", "unique document id (required)")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&author, "author", "", "document author")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func readContent(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
