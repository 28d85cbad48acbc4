package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/parable/internal/core/domain"
)

func passage(id, doc string, emb ...float32) domain.Passage {
	return domain.Passage{ID: id, DocumentID: doc, Text: "text " + id, Embedding: emb}
}

func TestPassageIndex_EmptyReturnsEmpty(t *testing.T) {
	idx := NewPassageIndex(nil)

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 5)

	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.Documents())
}

func TestPassageIndex_OrdersByCosine(t *testing.T) {
	idx := NewPassageIndex([]domain.Passage{
		passage("p1", "a", 0, 1),
		passage("p2", "b", 1, 0),
		passage("p3", "c", 1, 1),
	})

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 3)

	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "p2", hits[0].Passage.ID)
	assert.Equal(t, "p3", hits[1].Passage.ID)
	assert.Equal(t, "p1", hits[2].Passage.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.GreaterOrEqual(t, hits[1].Score, hits[2].Score)
}

func TestPassageIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := NewPassageIndex([]domain.Passage{
		passage("first", "a", 1, 0),
		passage("second", "b", 2, 0),
		passage("third", "c", 3, 0),
	})

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].Passage.ID)
	assert.Equal(t, "second", hits[1].Passage.ID)
}

func TestPassageIndex_SkipsMismatchedDimensions(t *testing.T) {
	idx := NewPassageIndex([]domain.Passage{
		passage("ok", "a", 1, 0),
		passage("wrong", "b", 1, 0, 0),
		passage("none", "c"),
	})

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 10)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ok", hits[0].Passage.ID)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 3, idx.Documents())
}

func TestPassageIndex_NonPositiveK(t *testing.T) {
	idx := NewPassageIndex([]domain.Passage{passage("p1", "a", 1, 0)})

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 0)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPassageIndex_CancelledContext(t *testing.T) {
	idx := NewPassageIndex([]domain.Passage{passage("p1", "a", 1, 0)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Query(ctx, []float32{1, 0}, 1)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPassageIndex_SwapIsIsolatedFromCaller(t *testing.T) {
	src := []domain.Passage{passage("p1", "a", 1, 0)}
	idx := NewPassageIndex(src)
	src[0].ID = "mutated"

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 1)

	require.NoError(t, err)
	assert.Equal(t, "p1", hits[0].Passage.ID)
}

func TestPassageIndex_ConcurrentQueriesDuringSwap(t *testing.T) {
	idx := NewPassageIndex([]domain.Passage{passage("p0", "a", 1, 0)})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hits, err := idx.Query(context.Background(), []float32{1, 0}, 1)
			assert.NoError(t, err)
			assert.Len(t, hits, 1)
		}()
		go func(n int) {
			defer wg.Done()
			idx.Swap([]domain.Passage{passage(fmt.Sprintf("p%d", n), "a", 1, 0)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, idx.Len())
}
