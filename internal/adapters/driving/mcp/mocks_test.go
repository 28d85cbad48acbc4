package mcp

import (
	"context"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
)

// mockGuidanceService is a mock implementation of driving.GuidanceService.
type mockGuidanceService struct {
	answer  domain.AnswerCandidate
	outcome domain.VerificationOutcome
	result  domain.RetrievalResult
	stats   domain.IndexStats
	err     error

	lastK         int
	lastEmotion   string
	lastSituation string
}

func (m *mockGuidanceService) Answer(_ context.Context, _ string) (domain.AnswerCandidate, error) {
	return m.answer, m.err
}

func (m *mockGuidanceService) Narrate(_ context.Context, _ string) (domain.VerificationOutcome, error) {
	return m.outcome, m.err
}

func (m *mockGuidanceService) Guide(_ context.Context, _ string) driving.Delivery {
	answers := make(chan driving.AnswerResult, 1)
	narratives := make(chan driving.NarrativeResult, 1)
	answers <- driving.AnswerResult{Answer: m.answer, Err: m.err}
	narratives <- driving.NarrativeResult{Outcome: m.outcome, Err: m.err}
	close(answers)
	close(narratives)
	return driving.Delivery{Answer: answers, Narrative: narratives, CancelNarrative: func() {}}
}

func (m *mockGuidanceService) Search(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
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

// mockLibrary is a mock implementation of Library.
type mockLibrary struct {
	documents []domain.Document
	err       error
}

func (m *mockLibrary) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}
