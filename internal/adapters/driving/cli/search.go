package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/parable/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show the passages most related to a query",
	Long: `Performs semantic search over the indexed passages without generating text.
At most one passage per document is returned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of passages (default from pipeline.search_k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if guidanceService == nil {
		return errGuidanceNotConfigured
	}

	result, err := guidanceService.Search(cmd.Context(), queryArg(args), searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	fmt.Fprint(cmd.OutOrStdout(), newRenderer(cmd.OutOrStdout()).passages(result))
	return nil
}

// searchHit is the JSON shape of one passage; embeddings are omitted.
type searchHit struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

func outputSearchJSON(cmd *cobra.Command, result domain.RetrievalResult) error {
	hits := make([]searchHit, len(result.Passages))
	for i := range result.Passages {
		p := result.Passages[i].Passage
		hits[i] = searchHit{
			DocumentID: p.DocumentID,
			Source:     p.SourceLabel,
			Text:       p.Text,
			Score:      result.Passages[i].Score,
		}
	}
	return writeJSON(cmd, hits)
}
