package driven

import (
	"context"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// PassageIndex provides nearest-neighbour lookup over embedded passages.
// It is shared by all concurrent queries and is read-only between swaps.
type PassageIndex interface {
	// Query returns up to k passages ordered by descending similarity.
	// Ties are broken by insertion order. An empty index returns an empty slice.
	Query(ctx context.Context, embedding []float32, k int) ([]domain.ScoredPassage, error)

	// Swap atomically replaces the indexed passages with a new snapshot.
	Swap(passages []domain.Passage)

	// Len returns the number of passages in the current snapshot.
	Len() int

	// Documents returns the number of distinct documents in the current snapshot.
	Documents() int
}
