package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/logger"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Describe the loaded corpus and models",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if guidanceService == nil {
		return errGuidanceNotConfigured
	}

	stats := guidanceService.Stats()
	var run *domain.IngestRun
	if runHistory != nil {
		latest, err := runHistory.LatestIngestRun(cmd.Context())
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Could not read ingest history: %v", err)
		}
		run = latest
	}

	if statsJSON {
		return writeJSON(cmd, struct {
			domain.IndexStats
			LastRun *domain.IngestRun `json:"last_run,omitempty"`
		}{stats, run})
	}
	fmt.Fprint(cmd.OutOrStdout(), newRenderer(cmd.OutOrStdout()).stats(stats, run))
	return nil
}
