package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
	"github.com/custodia-labs/parable/internal/logger"
	"github.com/custodia-labs/parable/internal/metrics"
)

// Ensure GuidanceService implements the interface.
var _ driving.GuidanceService = (*GuidanceService)(nil)

// GuidanceService answers queries and narrates verified stories.
// The answer path and the narrative path share nothing but the
// read-only passage index.
type GuidanceService struct {
	retriever  *Retriever
	answerer   *AnswerSynthesizer
	controller *RegenerationController
	index      driven.PassageIndex
	settings   domain.AppSettings
}

// NewGuidanceService wires the pipeline parts together.
func NewGuidanceService(
	retriever *Retriever,
	answerer *AnswerSynthesizer,
	controller *RegenerationController,
	index driven.PassageIndex,
	settings domain.AppSettings,
) *GuidanceService {
	defaults := domain.DefaultPipelineSettings()
	if settings.Pipeline.K <= 0 {
		settings.Pipeline.K = defaults.K
	}
	if settings.Pipeline.SearchK <= 0 {
		settings.Pipeline.SearchK = defaults.SearchK
	}
	if settings.Pipeline.AnswerTimeout <= 0 {
		settings.Pipeline.AnswerTimeout = defaults.AnswerTimeout
	}
	return &GuidanceService{
		retriever:  retriever,
		answerer:   answerer,
		controller: controller,
		index:      index,
		settings:   settings,
	}
}

// Answer retrieves passages and writes the fast answer within the answer budget.
func (s *GuidanceService) Answer(ctx context.Context, query string) (domain.AnswerCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AnswerCandidate{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.Pipeline.AnswerTimeout)
	defer cancel()

	logger.Section("Answer")
	result, err := s.retriever.Retrieve(ctx, query, s.settings.Pipeline.K)
	if err != nil {
		return domain.AnswerCandidate{}, err
	}

	answer, err := s.answerer.SynthesizeWithRetry(ctx, query, result.Plain())
	if err != nil {
		return domain.AnswerCandidate{}, err
	}
	metrics.ObserveAnswer(answer)
	return answer, nil
}

// Narrate retrieves passages and runs the regeneration loop.
func (s *GuidanceService) Narrate(ctx context.Context, query string) (domain.VerificationOutcome, error) {
	return s.narrate(ctx, uuid.NewString(), query)
}

func (s *GuidanceService) narrate(ctx context.Context, queryID, query string) (domain.VerificationOutcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.VerificationOutcome{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	logger.Section("Narrative")
	logger.Debug("Query %s: %q", queryID, query)

	result, err := s.retriever.Retrieve(ctx, query, s.settings.Pipeline.K)
	if err != nil {
		return domain.VerificationOutcome{}, err
	}

	outcome, err := s.controller.Run(ctx, query, result.Plain())
	if err != nil {
		return domain.VerificationOutcome{}, err
	}
	outcome.QueryID = queryID
	return outcome, nil
}

// Guide starts both paths and returns immediately. Each channel receives
// exactly one value and is then closed. Cancelling the narrative path
// never affects the answer.
func (s *GuidanceService) Guide(ctx context.Context, query string) driving.Delivery {
	queryID := uuid.NewString()
	answerCh := make(chan driving.AnswerResult, 1)
	narrativeCh := make(chan driving.NarrativeResult, 1)
	narrativeCtx, cancelNarrative := context.WithCancel(ctx)

	go func() {
		defer close(answerCh)
		answer, err := s.Answer(ctx, query)
		answerCh <- driving.AnswerResult{Answer: answer, Err: err}
	}()

	go func() {
		defer close(narrativeCh)
		defer cancelNarrative()
		outcome, err := s.narrate(narrativeCtx, queryID, query)
		narrativeCh <- driving.NarrativeResult{Outcome: outcome, Err: err}
	}()

	return driving.Delivery{
		QueryID:         queryID,
		Answer:          answerCh,
		Narrative:       narrativeCh,
		CancelNarrative: cancelNarrative,
	}
}

// Search returns the top passages for a query without generating anything.
func (s *GuidanceService) Search(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		k = s.settings.Pipeline.SearchK
	}
	return s.retriever.Retrieve(ctx, query, k)
}

// Wellness answers an emotional check-in through the answer path.
func (s *GuidanceService) Wellness(ctx context.Context, emotion, situation string) (domain.AnswerCandidate, error) {
	emotion = strings.TrimSpace(emotion)
	if emotion == "" {
		return domain.AnswerCandidate{}, fmt.Errorf("%w: empty emotion", domain.ErrInvalidInput)
	}

	query := fmt.Sprintf("I am feeling %s.", emotion)
	if situation = strings.TrimSpace(situation); situation != "" {
		query += " " + situation
	}

	answer, err := s.Answer(ctx, query)
	if err != nil {
		return domain.AnswerCandidate{}, err
	}
	answer.Emotion = emotion
	return answer, nil
}

// Stats describes the loaded corpus and models.
func (s *GuidanceService) Stats() domain.IndexStats {
	return domain.IndexStats{
		Passages:       s.index.Len(),
		Documents:      s.index.Documents(),
		LLMModel:       s.settings.LLM.Model,
		EmbeddingModel: s.settings.Embedding.Model,
		ChunkSize:      s.settings.Chunker.Size,
		ChunkOverlap:   s.settings.Chunker.Overlap,
		RetrievalK:     s.settings.Pipeline.K,
	}
}
