package driving

import (
	"context"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// GuidanceService answers queries and narrates verified stories.
type GuidanceService interface {
	// Answer returns the fast, unverified answer. It always returns text when
	// retrieval succeeds, falling back to supportive content if nothing matched.
	Answer(ctx context.Context, query string) (domain.AnswerCandidate, error)

	// Narrate runs the verify/regenerate loop. Rejection and an empty corpus are
	// reported as outcomes, not errors.
	Narrate(ctx context.Context, query string) (domain.VerificationOutcome, error)

	// Guide runs both paths concurrently and delivers each on its own channel.
	Guide(ctx context.Context, query string) Delivery

	// Search returns the most relevant passages without generating anything.
	Search(ctx context.Context, query string, k int) (domain.RetrievalResult, error)

	// Wellness answers "I am feeling {emotion}. {situation}".
	Wellness(ctx context.Context, emotion, situation string) (domain.AnswerCandidate, error)

	// Stats describes the loaded corpus and models.
	Stats() domain.IndexStats
}

// AnswerResult is delivered on the answer channel.
type AnswerResult struct {
	Answer domain.AnswerCandidate
	Err    error
}

// NarrativeResult is delivered on the narrative channel.
type NarrativeResult struct {
	Outcome domain.VerificationOutcome
	Err     error
}

// Delivery holds the two independent result channels for one query.
// Each channel receives exactly one value and is then closed.
type Delivery struct {
	// QueryID correlates both results with log lines.
	QueryID string

	Answer    <-chan AnswerResult
	Narrative <-chan NarrativeResult

	// CancelNarrative abandons the narrative path without affecting the answer.
	CancelNarrative func()
}

// IngestService loads documents into the passage store and index.
type IngestService interface {
	// Ingest splits, embeds and persists the documents, then swaps the index snapshot.
	Ingest(ctx context.Context, docs []domain.Document) (domain.IngestRun, error)

	// Reload rebuilds the index snapshot from the passage store.
	Reload(ctx context.Context) error
}
