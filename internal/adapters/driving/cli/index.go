package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indexReload bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Ingest source texts into the passage index",
	Long: `Splits, embeds and stores the documents at path, then swaps the index.

path may be a YAML manifest, a directory of .txt and .md files, or a single
file. Re-indexing a document replaces its passages.

A manifest looks like:
  documents:
    - id: gita-2
      title: Bhagavad Gita, Chapter 2
      source: Bhagavad Gita 2
      path: texts/gita-2.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexReload, "reload", false, "rebuild the index from stored passages without reading files")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if indexReload {
		if err := ingestService.Reload(cmd.Context()); err != nil {
			return fmt.Errorf("reload failed: %w", err)
		}
		cmd.Println("Index reloaded from the passage store.")
		return nil
	}

	if len(args) == 0 {
		return errors.New("a corpus path is required (or use --reload)")
	}

	docs, err := loadCorpus(args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Indexing %s...\n", plural(len(docs), "document"))

	run, err := ingestService.Ingest(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Indexed %s into %s in %s.\n",
		plural(run.Documents, "document"), plural(run.Passages, "passage"),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}
