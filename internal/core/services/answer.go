package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/logger"
)

// Ensure AnswerSynthesizer can use custom prompts.
var _ driven.PromptStoreAware = (*AnswerSynthesizer)(nil)

// DefaultAnswerRetryBackoff is the pause before the single answer retry.
const DefaultAnswerRetryBackoff = 500 * time.Millisecond

// AnswerSynthesizer writes the fast-path answer in one generation call.
// Its output is never verified.
type AnswerSynthesizer struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	opts        driven.GenerateOptions
	backoff     time.Duration
}

// NewAnswerSynthesizer creates an answer synthesizer.
func NewAnswerSynthesizer(llm driven.LLMService, settings domain.PipelineSettings) *AnswerSynthesizer {
	return &AnswerSynthesizer{
		llm: llm,
		opts: driven.GenerateOptions{
			MaxTokens:   settings.MaxTokens,
			Temperature: settings.Temperature,
		},
		backoff: DefaultAnswerRetryBackoff,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (a *AnswerSynthesizer) SetPromptStore(store driven.PromptStore) {
	a.promptStore = store
}

// Synthesize makes a single generation call. With no passages the
// supportive prompt is used and the answer is marked ungrounded.
func (a *AnswerSynthesizer) Synthesize(
	ctx context.Context, query string, passages []domain.Passage,
) (domain.AnswerCandidate, error) {
	if a.llm == nil {
		return domain.AnswerCandidate{}, domain.NewGenerationFailure("answer", domain.ErrLLMUnavailable)
	}

	grounded := len(passages) > 0
	var prompt string
	if grounded {
		prompt = fmt.Sprintf(loadPrompt(a.promptStore, driven.PromptAnswer, defaultAnswerPrompt),
			formatPassages(passages), query)
	} else {
		prompt = fmt.Sprintf(loadPrompt(a.promptStore, driven.PromptSupportive, defaultSupportivePrompt), query)
	}

	text, err := a.llm.Generate(ctx, prompt, a.opts)
	if err != nil {
		return domain.AnswerCandidate{}, domain.NewGenerationFailure("answer", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.AnswerCandidate{}, domain.NewGenerationFailure("answer", domain.ErrUnusableOutput)
	}

	return domain.AnswerCandidate{
		Text:         text,
		PassagesUsed: passages,
		Grounded:     grounded,
	}, nil
}

// SynthesizeWithRetry retries a failed synthesis once after a short backoff.
func (a *AnswerSynthesizer) SynthesizeWithRetry(
	ctx context.Context, query string, passages []domain.Passage,
) (domain.AnswerCandidate, error) {
	answer, err := a.Synthesize(ctx, query, passages)
	if err == nil {
		return answer, nil
	}
	logger.Warn("Answer generation failed, retrying: %v", err)

	timer := time.NewTimer(a.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.AnswerCandidate{}, domain.NewGenerationFailure("answer", ctx.Err())
	case <-timer.C:
	}

	return a.Synthesize(ctx, query, passages)
}
