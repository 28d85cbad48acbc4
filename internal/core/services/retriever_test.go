package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/parable/internal/core/domain"
)

func scored(id, doc string, score float64) domain.ScoredPassage {
	return domain.ScoredPassage{
		Passage: domain.Passage{ID: id, DocumentID: doc, Text: "text " + id},
		Score:   score,
	}
}

func TestRetriever_DedupesByDocumentAndTruncates(t *testing.T) {
	index := &mockIndex{hits: []domain.ScoredPassage{
		scored("a1", "A", 0.9),
		scored("a2", "A", 0.85),
		scored("b1", "B", 0.8),
		scored("c1", "C", 0.7),
	}}
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1, 0}}, index)

	result, err := r.Retrieve(context.Background(), "how do I act?", 3)

	require.NoError(t, err)
	assert.Equal(t, 6, index.lastK)
	require.Equal(t, 3, result.Len())
	assert.Equal(t, "a1", result.Passages[0].Passage.ID)
	assert.Equal(t, "b1", result.Passages[1].Passage.ID)
	assert.Equal(t, "c1", result.Passages[2].Passage.ID)
}

func TestRetriever_FewerDistinctThanK(t *testing.T) {
	index := &mockIndex{hits: []domain.ScoredPassage{
		scored("a1", "A", 0.9),
		scored("a2", "A", 0.5),
	}}
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, index)

	result, err := r.Retrieve(context.Background(), "duty", 5)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Len())
}

func TestRetriever_EmptyInputsSkipEmbedding(t *testing.T) {
	tests := []struct {
		name  string
		query string
		k     int
		hits  []domain.ScoredPassage
	}{
		{name: "empty index", query: "duty", k: 3},
		{name: "blank query", query: "   ", k: 3, hits: []domain.ScoredPassage{scored("a", "A", 1)}},
		{name: "zero k", query: "duty", k: 0, hits: []domain.ScoredPassage{scored("a", "A", 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &mockEmbeddingService{embedding: []float32{1}}
			r := NewRetriever(embedder, &mockIndex{hits: tt.hits})

			result, err := r.Retrieve(context.Background(), tt.query, tt.k)

			require.NoError(t, err)
			assert.True(t, result.IsEmpty())
			assert.Zero(t, embedder.calls.Load())
		})
	}
}

func TestRetriever_Failures(t *testing.T) {
	hits := []domain.ScoredPassage{scored("a", "A", 1)}

	t.Run("no embedder", func(t *testing.T) {
		r := NewRetriever(nil, &mockIndex{hits: hits})
		_, err := r.Retrieve(context.Background(), "duty", 3)
		assert.ErrorIs(t, err, domain.ErrRetrievalFailure)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("embed error", func(t *testing.T) {
		r := NewRetriever(&mockEmbeddingService{embedErr: errProvider}, &mockIndex{hits: hits})
		_, err := r.Retrieve(context.Background(), "duty", 3)
		assert.ErrorIs(t, err, domain.ErrRetrievalFailure)
		assert.ErrorIs(t, err, errProvider)
	})

	t.Run("empty embedding", func(t *testing.T) {
		r := NewRetriever(&mockEmbeddingService{}, &mockIndex{hits: hits})
		_, err := r.Retrieve(context.Background(), "duty", 3)
		assert.ErrorIs(t, err, domain.ErrRetrievalFailure)
	})

	t.Run("index error", func(t *testing.T) {
		indexErr := errors.New("index closed")
		r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, &mockIndex{hits: hits, queryErr: indexErr})
		_, err := r.Retrieve(context.Background(), "duty", 3)
		assert.ErrorIs(t, err, domain.ErrRetrievalFailure)
		assert.ErrorIs(t, err, indexErr)
	})
}

func TestRetriever_ConcurrentCallsShareEmbedding(t *testing.T) {
	gate := make(chan struct{})
	embedder := &mockEmbeddingService{embedding: []float32{1}, gate: gate}
	hits := []domain.ScoredPassage{scored("a", "A", 1)}
	r := NewRetriever(embedder, &mockIndex{hits: hits})

	const callers = 4
	started := make(chan struct{}, callers)
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			_, errs[i] = r.Retrieve(context.Background(), "duty", 1)
		}()
	}
	for range callers {
		<-started
	}
	require.Eventually(t, func() bool { return embedder.calls.Load() >= 1 }, waitFor, pollEvery)
	close(gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, embedder.calls.Load(), int32(callers))
}

func TestRetriever_CallerCancelDoesNotFailOthers(t *testing.T) {
	gate := make(chan struct{})
	embedder := &mockEmbeddingService{embedding: []float32{1}, gate: gate}
	r := NewRetriever(embedder, &mockIndex{hits: []domain.ScoredPassage{scored("a", "A", 1)}})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := r.Retrieve(ctx, "duty", 1)
		first <- err
	}()
	require.Eventually(t, func() bool { return embedder.calls.Load() == 1 }, waitFor, pollEvery)

	second := make(chan error, 1)
	go func() {
		_, err := r.Retrieve(context.Background(), "duty", 1)
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(gate)
	assert.NoError(t, <-second)
}
