package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const (
	defaultAnswerPrompt = `You are Vasudeva, a compassionate guide. A friend has come to you for counsel, and you address them as "Partha", the way Krishna addressed Arjuna.

Guidelines:
1. Begin your reply with "Partha," or "Dear Partha,"
2. Acknowledge what they are going through before advising
3. Draw on the passages below and stay faithful to them
4. Offer advice they can act on today
5. If the passages do not speak to the problem directly, offer general wisdom that steadies the mind
6. Stay warm and free of judgement
7. Reply in 3 to 6 sentences

Passages:
%s

Partha's problem:
%s

Your guidance:`

	defaultSupportivePrompt = `You are Vasudeva, a compassionate guide. No scripture passage matched your friend's concern, so speak from general wisdom alone and do not cite or invent any text.

Begin with "Partha," and reply in 3 to 4 supportive sentences that help them feel steadier.

Partha's problem:
%s

Your guidance:`

	defaultNarrativeDraftPrompt = `Retell ONE episode from the numbered passages below as a short story that speaks to the question.

Rules:
- Use only people, places, events, and words that appear in the passages
- Quote speech only if the passage contains it
- Keep events in the order the passages give them
- Do not add a moral the passages do not support

Passages:
%s

Question:
%s

Respond with a single JSON object and nothing else:
{"title": "...", "central_figure": "...", "passage_index": <number of the passage used>, "narrative": "...", "moral": "..."}`

	defaultNarrativeRevisePrompt = `
Your previous draft was rejected for these reasons:
%s
Write a completely new draft that fixes every one of them.`

	defaultJudgePrompt = `You check stories against their sources. List every claim in the story that the passages do not support.

Passages:
%s

Story:
%s

Allowed kinds: FABRICATED_ENTITY, INVENTED_DIALOGUE, UNSOURCED_EVENT, THEMATIC_DRIFT, TIMELINE_ERROR.
Respond with a single JSON object and nothing else:
{"violations": [{"kind": "...", "description": "...", "offending_span": "..."}]}
Use an empty list when the story is fully supported.`
)

// DefaultPrompts returns the built-in prompt templates keyed by prompt name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptAnswer:          defaultAnswerPrompt,
		driven.PromptSupportive:      defaultSupportivePrompt,
		driven.PromptNarrativeDraft:  defaultNarrativeDraftPrompt,
		driven.PromptNarrativeRevise: defaultNarrativeRevisePrompt,
		driven.PromptJudge:           defaultJudgePrompt,
	}
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}

// formatPassages renders passages as a numbered list with their source labels.
func formatPassages(passages []domain.Passage) string {
	var b strings.Builder
	for i := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] (%s)\n%s", i+1, sourceOrUnknown(passages[i].SourceLabel), strings.TrimSpace(passages[i].Text))
	}
	return b.String()
}

func sourceOrUnknown(label string) string {
	if label == "" {
		return "unknown source"
	}
	return label
}
