package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/logger"
)

// Ensure Judge can use custom prompts.
var _ driven.PromptStoreAware = (*Judge)(nil)

// Judge asks a generation model for violations the rules cannot see.
// Verdicts are memoised per candidate and passage set so that repeated
// checks of the same input agree.
type Judge struct {
	llm         driven.LLMService
	promptStore driven.PromptStore

	flight   singleflight.Group
	mu       sync.Mutex
	verdicts map[string][]domain.Violation
}

// NewJudge creates a judge backed by llm.
func NewJudge(llm driven.LLMService) *Judge {
	return &Judge{
		llm:      llm,
		verdicts: make(map[string][]domain.Violation),
	}
}

// SetPromptStore sets the prompt store for loading the judge prompt.
func (j *Judge) SetPromptStore(store driven.PromptStore) {
	j.promptStore = store
}

// Review returns the judge's violations for the candidate.
// A response that is not the expected JSON is a verification failure.
func (j *Judge) Review(
	ctx context.Context, candidate domain.NarrativeCandidate, passages []domain.Passage,
) ([]domain.Violation, error) {
	key := verdictKey(candidate, passages)

	j.mu.Lock()
	if vs, ok := j.verdicts[key]; ok {
		j.mu.Unlock()
		return vs, nil
	}
	j.mu.Unlock()

	// Callers that join the flight must not inherit the first caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := j.flight.DoChan(key, func() (any, error) {
		prompt := fmt.Sprintf(loadPrompt(j.promptStore, driven.PromptJudge, defaultJudgePrompt),
			formatPassages(passages), candidate.NarrativeText+"\nMoral: "+candidate.Moral)

		raw, err := j.llm.Generate(flightCtx, prompt, driven.GenerateOptions{
			MaxTokens:   600,
			Temperature: 0,
			JSON:        true,
		})
		if err != nil {
			return nil, domain.NewGenerationFailure("judge", err)
		}

		vs, err := parseVerdict(raw)
		if err != nil {
			logger.Debug("Judge returned unparseable verdict: %v", err)
			return nil, domain.NewVerificationFailure("parse judge verdict", err)
		}

		j.mu.Lock()
		j.verdicts[key] = vs
		j.mu.Unlock()
		return vs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Violation), nil
	}
}

func verdictKey(c domain.NarrativeCandidate, passages []domain.Passage) string {
	h := sha256.New()
	for _, s := range []string{c.CentralFigure, c.NarrativeText, c.Moral} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	for i := range passages {
		h.Write([]byte(passages[i].ID))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type judgeVerdict struct {
	Violations *[]judgeViolation `json:"violations"`
}

type judgeViolation struct {
	Kind          string `json:"kind"`
	Description   string `json:"description"`
	OffendingSpan string `json:"offending_span"`
}

// parseVerdict accepts exactly one JSON object of the form
// {"violations": [...]}, optionally inside a markdown code fence.
func parseVerdict(raw string) ([]domain.Violation, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, errors.New("empty verdict")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var v judgeVerdict
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after verdict")
	}
	if v.Violations == nil {
		return nil, errors.New("verdict has no violations field")
	}

	var out []domain.Violation
	for _, jv := range *v.Violations {
		kind := domain.ViolationKind(strings.ToUpper(strings.TrimSpace(jv.Kind)))
		if !kind.IsContentKind() {
			return nil, fmt.Errorf("unknown violation kind %q", jv.Kind)
		}
		out = append(out, domain.Violation{
			Kind:          kind,
			Description:   strings.TrimSpace(jv.Description),
			OffendingSpan: strings.TrimSpace(jv.OffendingSpan),
		})
	}
	return out, nil
}

// stripCodeFence removes a single surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
