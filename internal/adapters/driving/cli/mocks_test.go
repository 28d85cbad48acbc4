package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/parable/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
	"github.com/custodia-labs/parable/internal/core/services"
)

// mockGuidanceService is a mock implementation of driving.GuidanceService.
type mockGuidanceService struct {
	answer  domain.AnswerCandidate
	outcome domain.VerificationOutcome
	result  domain.RetrievalResult
	stats   domain.IndexStats
	err     error

	lastQuery     string
	lastK         int
	lastEmotion   string
	lastSituation string
	cancelled     atomic.Bool
}

func (m *mockGuidanceService) Answer(_ context.Context, query string) (domain.AnswerCandidate, error) {
	m.lastQuery = query
	return m.answer, m.err
}

func (m *mockGuidanceService) Narrate(_ context.Context, query string) (domain.VerificationOutcome, error) {
	m.lastQuery = query
	return m.outcome, m.err
}

func (m *mockGuidanceService) Guide(_ context.Context, query string) driving.Delivery {
	m.lastQuery = query
	answers := make(chan driving.AnswerResult, 1)
	narratives := make(chan driving.NarrativeResult, 1)
	answers <- driving.AnswerResult{Answer: m.answer, Err: m.err}
	narratives <- driving.NarrativeResult{Outcome: m.outcome, Err: m.err}
	close(answers)
	close(narratives)
	return driving.Delivery{
		QueryID:         "q-test",
		Answer:          answers,
		Narrative:       narratives,
		CancelNarrative: func() { m.cancelled.Store(true) },
	}
}

func (m *mockGuidanceService) Search(_ context.Context, query string, k int) (domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastK = k
	return m.result, m.err
}

func (m *mockGuidanceService) Wellness(_ context.Context, emotion, situation string) (domain.AnswerCandidate, error) {
	m.lastEmotion = emotion
	m.lastSituation = situation
	a := m.answer
	a.Emotion = emotion
	return a, m.err
}

func (m *mockGuidanceService) Stats() domain.IndexStats {
	return m.stats
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	docs     []domain.Document
	reloaded bool
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, docs []domain.Document) (domain.IngestRun, error) {
	m.docs = docs
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.IngestRun{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Documents:  len(docs),
		Passages:   5,
	}, m.err
}

func (m *mockIngestService) Reload(_ context.Context) error {
	m.reloaded = true
	return m.err
}

// mockRunHistory is a mock implementation of RunHistory.
type mockRunHistory struct {
	run *domain.IngestRun
	err error
}

func (m *mockRunHistory) LatestIngestRun(_ context.Context) (*domain.IngestRun, error) {
	return m.run, m.err
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	guidance *mockGuidanceService
	ingest   *mockIngestService
	config   *memory.ConfigStore
}

// setupTestServices installs mocks and returns a cleanup that restores the
// previous services and resets flag variables.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		guidance: &mockGuidanceService{
			answer: domain.AnswerCandidate{
				Text:         "Partha, do your duty without attachment.",
				Grounded:     true,
				PassagesUsed: []domain.Passage{{SourceLabel: "Bhagavad Gita 2"}},
			},
			outcome: domain.Accepted(domain.NarrativeCandidate{
				Title:         "The Crow and the Pitcher",
				CentralFigure: "Crow",
				SourceLabel:   "Aesop",
				NarrativeText: "A thirsty crow dropped pebbles into a pitcher.",
				Moral:         "Little by little does the trick.",
			}, 2),
			result: domain.RetrievalResult{Passages: []domain.ScoredPassage{{
				Passage: domain.Passage{DocumentID: "gita-2", SourceLabel: "Bhagavad Gita 2", Text: "Do your duty."},
				Score:   0.87,
			}}},
			stats: domain.IndexStats{
				Passages: 42, Documents: 3, LLMModel: "llama3.2", EmbeddingModel: "nomic-embed-text",
				ChunkSize: 800, ChunkOverlap: 150, RetrievalK: 5,
			},
		},
		ingest: &mockIngestService{},
		config: memory.NewConfigStore(),
	}

	oldGuidance, oldIngest, oldSettings := guidanceService, ingestService, settingsService
	oldConfig, oldRuns, oldLoad := configStore, runHistory, loadCorpus

	SetServices(Services{
		Guidance: ts.guidance,
		Ingest:   ts.ingest,
		Settings: services.NewSettingsService(ts.config, nil),
		Config:   ts.config,
		Runs:     &mockRunHistory{err: domain.ErrNotFound},
	})

	return ts, func() {
		guidanceService, ingestService, settingsService = oldGuidance, oldIngest, oldSettings
		configStore, runHistory, loadCorpus = oldConfig, oldRuns, oldLoad
		answerJSONOutput, narrateJSONOutput, askJSONOutput, askNoStory = false, false, false, false
		searchJSON, searchLimit, wellnessJSON, statsJSON, indexReload = false, 0, false, false, false
		rootCmd.SetArgs(nil)
	}
}
