package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/logger"
	"github.com/custodia-labs/parable/internal/metrics"
)

// overfetch is how many extra candidates are read per requested passage,
// leaving room for duplicates removed after the index lookup.
const overfetch = 2

// Retriever finds the passages most relevant to a query.
// It is safe for concurrent use; concurrent retrievals of the same query
// share a single embedding call.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.PassageIndex
	flight   singleflight.Group
}

// NewRetriever creates a retriever over index.
func NewRetriever(embedder driven.EmbeddingService, index driven.PassageIndex) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve returns at most k distinct passages ordered by descending relevance.
// An empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 || r.index.Len() == 0 {
		return domain.RetrievalResult{}, nil
	}
	if r.embedder == nil {
		return domain.RetrievalResult{}, domain.NewRetrievalFailure("embed query", domain.ErrEmbeddingUnavailable)
	}

	start := time.Now()
	defer func() { metrics.ObserveRetrieval(time.Since(start).Seconds()) }()

	embedding, err := r.embed(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, domain.NewRetrievalFailure("embed query", err)
	}

	hits, err := r.index.Query(ctx, embedding, k*overfetch)
	if err != nil {
		return domain.RetrievalResult{}, domain.NewRetrievalFailure("query index", err)
	}

	result := domain.RetrievalResult{Passages: dedupePassages(hits, k)}
	logger.Debug("Retrieved %d passage(s) from %d candidate(s)", result.Len(), len(hits))
	return result, nil
}

// embed shares one embedding call between concurrent callers of the same
// query. Each caller still honours its own context.
func (r *Retriever) embed(ctx context.Context, query string) ([]float32, error) {
	ch := r.flight.DoChan(query, func() (any, error) {
		return r.embedder.Embed(context.WithoutCancel(ctx), query)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		embedding, ok := res.Val.([]float32)
		if !ok || len(embedding) == 0 {
			return nil, errors.New("empty query embedding")
		}
		return embedding, nil
	}
}

// dedupePassages keeps the highest-scoring passage of each document and
// truncates to k. Hits must already be ordered by descending score.
func dedupePassages(hits []domain.ScoredPassage, k int) []domain.ScoredPassage {
	seen := make(map[string]bool, len(hits))
	out := make([]domain.ScoredPassage, 0, min(k, len(hits)))
	for _, h := range hits {
		if seen[h.Passage.DocumentID] {
			continue
		}
		seen[h.Passage.DocumentID] = true
		out = append(out, h)
		if len(out) == k {
			break
		}
	}
	return out
}
