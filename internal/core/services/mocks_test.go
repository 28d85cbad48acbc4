package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService. respond is called with the
// zero-based call number and the prompt.
type mockLLM struct {
	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions
	respond func(call int, prompt string) (string, error)
	gate    chan struct{} // when set, Generate waits for it or for ctx
}

func replying(text string) *mockLLM {
	return &mockLLM{respond: func(int, string) (string, error) { return text, nil }}
}

func failing(err error) *mockLLM {
	return &mockLLM{respond: func(int, string) (string, error) { return "", err }}
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	call := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.respond(call, prompt)
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[i]
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockEmbeddingService implements driven.EmbeddingService.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	calls     atomic.Int32
	gate      chan struct{} // when set, Embed blocks until it is closed
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.embedding
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockIndex implements driven.PassageIndex with canned hits.
type mockIndex struct {
	mu       sync.Mutex
	hits     []domain.ScoredPassage
	queryErr error
	lastK    int
	swapped  []domain.Passage
}

func (m *mockIndex) Query(_ context.Context, _ []float32, k int) ([]domain.ScoredPassage, error) {
	m.mu.Lock()
	m.lastK = k
	m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockIndex) Swap(passages []domain.Passage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swapped = passages
}

func (m *mockIndex) Len() int       { return len(m.hits) }
func (m *mockIndex) Documents() int { return len(m.hits) }

// scriptedDrafter implements Drafter.
type scriptedDrafter struct {
	mu      sync.Mutex
	priors  [][]domain.Violation
	respond func(attempt int) (domain.NarrativeCandidate, error)
}

func (d *scriptedDrafter) Draft(
	ctx context.Context, _ string, _ []domain.Passage, prior []domain.Violation, attempt int,
) (domain.NarrativeCandidate, error) {
	d.mu.Lock()
	d.priors = append(d.priors, prior)
	d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.NarrativeCandidate{}, err
	}
	return d.respond(attempt)
}

func (d *scriptedDrafter) attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.priors)
}

// scriptedVerifier implements Verifier.
type scriptedVerifier struct {
	calls   atomic.Int32
	respond func(call int) ([]domain.Violation, error)
}

func (v *scriptedVerifier) Check(
	ctx context.Context, _ domain.NarrativeCandidate, _ []domain.Passage,
) ([]domain.Violation, error) {
	n := int(v.calls.Add(1)) - 1
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.respond(n)
}

var errProvider = errors.New("connection refused")

const (
	waitFor   = 2 * time.Second
	pollEvery = 5 * time.Millisecond
)

// --- Fixtures ---

func fixturePassages() []domain.Passage {
	return []domain.Passage{
		{
			ID:          "p1",
			DocumentID:  "gita-1",
			SourceLabel: "Bhagavad Gita 1",
			Text: "Arjuna saw his teachers and kinsmen in both armies. " +
				"Overcome with sorrow, Arjuna cast aside his bow. " +
				"Then Krishna spoke to him with a smile.",
		},
		{
			ID:          "p2",
			DocumentID:  "gita-2",
			SourceLabel: "Bhagavad Gita 2",
			Text: `Krishna said, "Arise, Partha, and fight." ` +
				"You should perform your duty without attachment to results.",
		},
	}
}

func groundedCandidate() domain.NarrativeCandidate {
	return domain.NarrativeCandidate{
		Title:         "The Bow Laid Down",
		CentralFigure: "Arjuna",
		SourceLabel:   "Bhagavad Gita 1",
		NarrativeText: "On the field, Arjuna saw his teachers in both armies. " +
			"Arjuna cast aside his bow in sorrow. " +
			"Krishna spoke to him with a smile. " +
			`"Arise, Partha, and fight," Krishna said.`,
		Moral:         "Perform your duty without attachment to results.",
		AttemptNumber: 1,
	}
}
