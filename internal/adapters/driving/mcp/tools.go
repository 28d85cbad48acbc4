package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// QueryInput is the input schema for the answer and narrate tools.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question or situation to respond to"`
}

// AnswerOutput is the output schema for the answer and wellness tools.
type AnswerOutput struct {
	Text     string   `json:"text"`
	Grounded bool     `json:"grounded"`
	Emotion  string   `json:"emotion,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}

// StoryOutput is an accepted narrative.
type StoryOutput struct {
	Title     string `json:"title"`
	Narrative string `json:"narrative"`
	Character string `json:"character"`
	Source    string `json:"source"`
	Moral     string `json:"moral,omitempty"`
}

// ViolationOutput is one fact checker finding.
type ViolationOutput struct {
	Kind          string `json:"kind"`
	Description   string `json:"description"`
	OffendingSpan string `json:"offending_span,omitempty"`
}

// NarrateOutput is the output schema for the narrate tool. Story is set
// only when Status is ACCEPTED.
type NarrateOutput struct {
	QueryID    string            `json:"query_id"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Story      *StoryOutput      `json:"story,omitempty"`
	Violations []ViolationOutput `json:"violations,omitempty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find related passages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 3)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// WellnessInput is the input schema for the wellness tool.
type WellnessInput struct {
	Emotion   string `json:"emotion" jsonschema:"how the user feels, e.g. anxious"`
	Situation string `json:"situation,omitempty" jsonschema:"what is happening, in the user's words"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Fast guidance grounded in the source texts. Not fact checked.",
	}, s.handleAnswer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "narrate",
		Description: "Tell a story from the source texts that fits the query. " +
			"The story is fact checked against the passages and is only returned when it passes.",
	}, s.handleNarrate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Return the passages most related to the query without generating text",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "wellness",
		Description: "Supportive guidance for an emotion and situation",
	}, s.handleWellness)
}

func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	answer, err := s.ports.Guidance.Answer(ctx, input.Query)
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, toAnswerOutput(answer), nil
}

func (s *Server) handleNarrate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, NarrateOutput, error) {
	outcome, err := s.ports.Guidance.Narrate(ctx, input.Query)
	if err != nil {
		return nil, NarrateOutput{}, err
	}
	return nil, toNarrateOutput(outcome), nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	// Non-positive limits fall back to the configured search k.
	result, err := s.ports.Guidance.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Passages: make([]PassageOutput, len(result.Passages)),
		Count:    len(result.Passages),
	}
	for i := range result.Passages {
		p := result.Passages[i].Passage
		output.Passages[i] = PassageOutput{
			DocumentID: p.DocumentID,
			Source:     p.SourceLabel,
			Text:       p.Text,
			Score:      result.Passages[i].Score,
		}
	}
	return nil, output, nil
}

func (s *Server) handleWellness(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WellnessInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	answer, err := s.ports.Guidance.Wellness(ctx, input.Emotion, input.Situation)
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, toAnswerOutput(answer), nil
}

func toAnswerOutput(a domain.AnswerCandidate) AnswerOutput {
	return AnswerOutput{
		Text:     a.Text,
		Grounded: a.Grounded,
		Emotion:  a.Emotion,
		Sources:  a.Sources(),
	}
}

func toNarrateOutput(o domain.VerificationOutcome) NarrateOutput {
	out := NarrateOutput{
		QueryID:  o.QueryID,
		Status:   o.Status.String(),
		Attempts: o.Attempts,
	}
	if o.HasNarrative() {
		c := o.Candidate
		out.Story = &StoryOutput{
			Title:     c.Title,
			Narrative: c.NarrativeText,
			Character: c.CentralFigure,
			Source:    c.SourceLabel,
			Moral:     c.Moral,
		}
	}
	for _, v := range o.Violations {
		out.Violations = append(out.Violations, ViolationOutput{
			Kind:          v.Kind.String(),
			Description:   v.Description,
			OffendingSpan: v.OffendingSpan,
		})
	}
	return out
}
