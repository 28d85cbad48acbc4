package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// Ensure NarrativeDrafter can use custom prompts.
var _ driven.PromptStoreAware = (*NarrativeDrafter)(nil)

// NarrativeDrafter asks the model for one self-contained episode.
// Every call produces a complete new candidate.
type NarrativeDrafter struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	opts        driven.GenerateOptions
}

// NewNarrativeDrafter creates a narrative drafter.
func NewNarrativeDrafter(llm driven.LLMService, settings domain.PipelineSettings) *NarrativeDrafter {
	return &NarrativeDrafter{
		llm: llm,
		opts: driven.GenerateOptions{
			MaxTokens:   settings.MaxTokens,
			Temperature: settings.Temperature,
			JSON:        true,
		},
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (d *NarrativeDrafter) SetPromptStore(store driven.PromptStore) {
	d.promptStore = store
}

// draftResponse is the JSON object the draft prompt asks for.
type draftResponse struct {
	Title         string `json:"title"`
	CentralFigure string `json:"central_figure"`
	PassageIndex  int    `json:"passage_index"`
	Narrative     string `json:"narrative"`
	Moral         string `json:"moral"`
}

// Draft produces a candidate for the given attempt. On retries the prior
// violations are listed verbatim in the prompt.
func (d *NarrativeDrafter) Draft(
	ctx context.Context, query string, passages []domain.Passage, prior []domain.Violation, attempt int,
) (domain.NarrativeCandidate, error) {
	if d.llm == nil {
		return domain.NarrativeCandidate{}, domain.NewGenerationFailure("draft", domain.ErrLLMUnavailable)
	}
	if len(passages) == 0 {
		return domain.NarrativeCandidate{}, domain.NewGenerationFailure("draft", domain.ErrInvalidInput)
	}

	prompt := fmt.Sprintf(loadPrompt(d.promptStore, driven.PromptNarrativeDraft, defaultNarrativeDraftPrompt),
		formatPassages(passages), query)
	if len(prior) > 0 {
		prompt += fmt.Sprintf(loadPrompt(d.promptStore, driven.PromptNarrativeRevise, defaultNarrativeRevisePrompt),
			formatViolations(prior))
	}

	raw, err := d.llm.Generate(ctx, prompt, d.opts)
	if err != nil {
		return domain.NarrativeCandidate{}, domain.NewGenerationFailure("draft", err)
	}

	candidate, err := parseDraft(raw, passages)
	if err != nil {
		return domain.NarrativeCandidate{}, domain.NewGenerationFailure("parse draft",
			fmt.Errorf("%w: %v", domain.ErrUnusableOutput, err))
	}
	candidate.AttemptNumber = attempt
	return candidate, nil
}

// parseDraft decodes the model's JSON. The source label always comes from
// the chosen passage, falling back to the first one when the index is out
// of range.
func parseDraft(raw string, passages []domain.Passage) (domain.NarrativeCandidate, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return domain.NarrativeCandidate{}, errors.New("empty draft")
	}

	var resp draftResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return domain.NarrativeCandidate{}, fmt.Errorf("decode draft: %w", err)
	}

	resp.Narrative = strings.TrimSpace(resp.Narrative)
	if resp.Narrative == "" {
		return domain.NarrativeCandidate{}, errors.New("draft has no narrative")
	}

	source := passages[0]
	if resp.PassageIndex >= 1 && resp.PassageIndex <= len(passages) {
		source = passages[resp.PassageIndex-1]
	}

	return domain.NarrativeCandidate{
		Title:         strings.TrimSpace(resp.Title),
		CentralFigure: strings.TrimSpace(resp.CentralFigure),
		SourceLabel:   source.SourceLabel,
		NarrativeText: resp.Narrative,
		Moral:         strings.TrimSpace(resp.Moral),
	}, nil
}

func formatViolations(vs []domain.Violation) string {
	var b strings.Builder
	for _, v := range vs {
		b.WriteString("- ")
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return b.String()
}
