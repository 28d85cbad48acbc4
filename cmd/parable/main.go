// Command parable answers questions from a corpus of source texts and
// narrates stories that have been fact checked against it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/parable/internal/adapters/driven/ai"
	"github.com/custodia-labs/parable/internal/adapters/driven/config/file"
	"github.com/custodia-labs/parable/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/parable/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/parable/internal/adapters/driven/storage/watch"
	"github.com/custodia-labs/parable/internal/adapters/driving/cli"
	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/services"
	"github.com/custodia-labs/parable/internal/logger"
	"github.com/custodia-labs/parable/internal/splitter"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	closeAll, err := wire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeAll()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// wire builds every adapter and service and hands them to the CLI. The
// returned func releases what was opened.
func wire(ctx context.Context) (func(), error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	baseDir := filepath.Join(home, ".parable")
	if dir := os.Getenv("PARABLE_HOME"); dir != "" {
		baseDir = dir
	}

	configStore, err := file.NewConfigStore(baseDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	applyEnvKeys(settings)

	promptStore, err := file.NewPromptStore(filepath.Join(baseDir, "prompts"), services.DefaultPrompts())
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(baseDir, "data"))
	if err != nil {
		return nil, fmt.Errorf("open passage store: %w", err)
	}

	// Providers may be unconfigured or down; config commands must still run.
	aiServices, err := ai.Init(ctx, settings)
	if err != nil {
		logger.Warn("%v", err)
		aiServices = &ai.InitResult{}
	}

	split, err := splitter.NewDefault(settings.Chunker)
	if err != nil {
		store.Close()
		aiServices.Close()
		return nil, fmt.Errorf("build splitter: %w", err)
	}

	index := memory.NewPassageIndex(nil)
	ingest := services.NewIngestService(split, aiServices.EmbeddingService, store, index)
	if err := ingest.Reload(ctx); err != nil {
		logger.Warn("Could not load stored passages: %v", err)
	}

	retriever := services.NewRetriever(aiServices.EmbeddingService, index)

	answerer := services.NewAnswerSynthesizer(aiServices.LLMService, settings.Pipeline)
	answerer.SetPromptStore(promptStore)

	drafter := services.NewNarrativeDrafter(aiServices.LLMService, settings.Pipeline)
	drafter.SetPromptStore(promptStore)

	var judge *services.Judge
	if settings.Checker.LLMJudge && aiServices.LLMService != nil {
		judge = services.NewJudge(aiServices.LLMService)
		judge.SetPromptStore(promptStore)
	}
	checker := services.NewFactChecker(settings.Checker, judge)

	controller := services.NewRegenerationController(
		drafter, checker, settings.Pipeline.MaxAttempts, settings.Pipeline.NarrativeTimeout)

	guidance := services.NewGuidanceService(retriever, answerer, controller, index, *settings)

	cli.SetServices(cli.Services{
		Guidance: guidance,
		Ingest:   ingest,
		Settings: settingsService,
		Config:   configStore,
		Runs:     store,
		Library:  store,
		Watch: func(ctx context.Context) error {
			w, err := watch.New(store.Path(), ingest)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	})

	return func() {
		aiServices.Close()
		store.Close()
	}, nil
}

// applyEnvKeys lets OPENAI_API_KEY and ANTHROPIC_API_KEY override the keys
// in the config file. An unset or empty variable leaves the file's key.
func applyEnvKeys(settings *domain.AppSettings) {
	envKey := func(p domain.AIProvider) string {
		switch p {
		case domain.AIProviderOpenAI:
			return os.Getenv("OPENAI_API_KEY")
		case domain.AIProviderAnthropic:
			return os.Getenv("ANTHROPIC_API_KEY")
		default:
			return ""
		}
	}
	if key := envKey(settings.Embedding.Provider); key != "" {
		settings.Embedding.APIKey = key
	}
	if key := envKey(settings.LLM.Provider); key != "" {
		settings.LLM.APIKey = key
	}
}
