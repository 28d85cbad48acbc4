package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/parable/internal/core/domain"
)

const draftJSON = `{"title":"The Bow Laid Down","central_figure":"Arjuna","passage_index":2,` +
	`"narrative":"Arjuna cast aside his bow.","moral":"Perform your duty."}`

func TestNarrativeDrafter_ParsesDraft(t *testing.T) {
	llm := replying("```json\n" + draftJSON + "\n```")
	d := NewNarrativeDrafter(llm, domain.DefaultPipelineSettings())

	cand, err := d.Draft(context.Background(), "Should I fight?", fixturePassages(), nil, 2)

	require.NoError(t, err)
	assert.Equal(t, domain.NarrativeCandidate{
		Title:         "The Bow Laid Down",
		CentralFigure: "Arjuna",
		SourceLabel:   "Bhagavad Gita 2",
		NarrativeText: "Arjuna cast aside his bow.",
		Moral:         "Perform your duty.",
		AttemptNumber: 2,
	}, cand)
	assert.True(t, llm.opts[0].JSON)
	assert.NotContains(t, llm.prompt(0), "previous draft was rejected")
}

func TestNarrativeDrafter_OutOfRangeIndexUsesFirstPassage(t *testing.T) {
	for _, idx := range []string{"0", "7", "-1"} {
		t.Run(idx, func(t *testing.T) {
			raw := `{"title":"t","central_figure":"Arjuna","passage_index":` + idx + `,"narrative":"Arjuna wept.","moral":""}`
			d := NewNarrativeDrafter(replying(raw), domain.DefaultPipelineSettings())

			cand, err := d.Draft(context.Background(), "q", fixturePassages(), nil, 1)

			require.NoError(t, err)
			assert.Equal(t, "Bhagavad Gita 1", cand.SourceLabel)
		})
	}
}

func TestNarrativeDrafter_RetryListsPriorViolations(t *testing.T) {
	llm := replying(draftJSON)
	d := NewNarrativeDrafter(llm, domain.DefaultPipelineSettings())
	prior := []domain.Violation{
		{Kind: domain.ViolationFabricatedEntity, Description: `"Bhima" does not appear`, OffendingSpan: "Bhima"},
		{Kind: domain.ViolationTimelineError, Description: "events out of order"},
	}

	_, err := d.Draft(context.Background(), "q", fixturePassages(), prior, 2)

	require.NoError(t, err)
	prompt := llm.prompt(0)
	assert.Contains(t, prompt, "previous draft was rejected")
	assert.Contains(t, prompt, "- "+prior[0].String())
	assert.Contains(t, prompt, "- TIMELINE_ERROR: events out of order")
}

func TestNarrativeDrafter_UnusableOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "Once upon a time..."},
		{name: "empty", raw: ""},
		{name: "no narrative", raw: `{"title":"t","narrative":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewNarrativeDrafter(replying(tt.raw), domain.DefaultPipelineSettings())

			_, err := d.Draft(context.Background(), "q", fixturePassages(), nil, 1)

			assert.ErrorIs(t, err, domain.ErrGenerationFailure)
			assert.ErrorIs(t, err, domain.ErrUnusableOutput)
		})
	}
}

func TestNarrativeDrafter_ProviderErrorIsNotUnusableOutput(t *testing.T) {
	d := NewNarrativeDrafter(failing(errProvider), domain.DefaultPipelineSettings())

	_, err := d.Draft(context.Background(), "q", fixturePassages(), nil, 1)

	assert.ErrorIs(t, err, domain.ErrGenerationFailure)
	assert.ErrorIs(t, err, errProvider)
	assert.NotErrorIs(t, err, domain.ErrUnusableOutput)
}

func TestNarrativeDrafter_RequiresPassages(t *testing.T) {
	d := NewNarrativeDrafter(replying(draftJSON), domain.DefaultPipelineSettings())

	_, err := d.Draft(context.Background(), "q", nil, nil, 1)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
