// Package cli provides the cobra command tree for the parable binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/parable/internal/adapters/driven/corpus"
	"github.com/custodia-labs/parable/internal/adapters/driving/mcp"
	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
	"github.com/custodia-labs/parable/internal/logger"
)

// RunHistory reports past ingestion runs.
type RunHistory interface {
	LatestIngestRun(ctx context.Context) (*domain.IngestRun, error)
}

// Services holds everything the commands drive. Any field may be nil;
// commands that need a missing service report it.
type Services struct {
	Guidance driving.GuidanceService
	Ingest   driving.IngestService
	Settings driving.SettingsService
	Config   driven.ConfigStore
	Runs     RunHistory
	Library  mcp.Library

	// Watch keeps the index in step with the passage store while a
	// long-running command serves. It blocks until ctx is cancelled.
	Watch func(ctx context.Context) error
}

var (
	version = "dev"
	verbose bool

	guidanceService driving.GuidanceService
	ingestService   driving.IngestService
	settingsService driving.SettingsService
	configStore     driven.ConfigStore
	runHistory      RunHistory
	library         mcp.Library
	watchIndex      func(ctx context.Context) error

	// loadCorpus reads documents for "parable index".
	loadCorpus = corpus.Load
)

var rootCmd = &cobra.Command{
	Use:   "parable",
	Short: "Guidance and verified stories from your own texts",
	Long: `Parable answers questions from a corpus of source texts.

Each query produces a fast answer grounded in the retrieved passages and,
separately, a story drawn from those passages. A story is only shown after
it passes fact checking against the passages it came from.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress to stderr")
}

// SetServices wires the services the commands use.
func SetServices(s Services) {
	guidanceService = s.Guidance
	ingestService = s.Ingest
	settingsService = s.Settings
	configStore = s.Config
	runHistory = s.Runs
	library = s.Library
	watchIndex = s.Watch
}

// SetVersion sets the version reported by "parable version".
func SetVersion(v string) {
	version = v
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
