package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync/atomic"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// Ensure PassageIndex implements the interface.
var _ driven.PassageIndex = (*PassageIndex)(nil)

// snapshot is an immutable view of the indexed passages.
type snapshot struct {
	passages  []domain.Passage
	norms     []float64
	documents int
}

func newSnapshot(passages []domain.Passage) *snapshot {
	s := &snapshot{
		passages: make([]domain.Passage, len(passages)),
		norms:    make([]float64, len(passages)),
	}
	copy(s.passages, passages)

	docs := make(map[string]struct{})
	for i := range s.passages {
		s.norms[i] = norm(s.passages[i].Embedding)
		docs[s.passages[i].DocumentID] = struct{}{}
	}
	s.documents = len(docs)
	return s
}

// PassageIndex is an exact cosine-similarity index held in memory.
// Readers never lock: Swap publishes a new snapshot atomically and
// queries already running keep the one they loaded.
type PassageIndex struct {
	current atomic.Pointer[snapshot]
}

// NewPassageIndex creates an index over passages. Passages without an
// embedding are kept for counting but never returned.
func NewPassageIndex(passages []domain.Passage) *PassageIndex {
	idx := &PassageIndex{}
	idx.Swap(passages)
	return idx
}

// Swap replaces the indexed passages.
func (i *PassageIndex) Swap(passages []domain.Passage) {
	i.current.Store(newSnapshot(passages))
}

// Len returns the number of passages in the current snapshot.
func (i *PassageIndex) Len() int {
	return len(i.current.Load().passages)
}

// Documents returns the number of distinct documents in the current snapshot.
func (i *PassageIndex) Documents() int {
	return i.current.Load().documents
}

// Query returns up to k passages by descending cosine similarity. Ties keep
// insertion order. Passages whose embedding length differs from the query
// are skipped.
func (i *PassageIndex) Query(ctx context.Context, embedding []float32, k int) ([]domain.ScoredPassage, error) {
	snap := i.current.Load()
	if k <= 0 || len(snap.passages) == 0 || len(embedding) == 0 {
		return []domain.ScoredPassage{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qnorm := norm(embedding)
	scored := make([]domain.ScoredPassage, 0, len(snap.passages))
	for n := range snap.passages {
		p := &snap.passages[n]
		if len(p.Embedding) != len(embedding) {
			continue
		}
		scored = append(scored, domain.ScoredPassage{
			Passage: *p,
			Score:   cosine(embedding, p.Embedding, qnorm, snap.norms[n]),
		})
	}

	slices.SortStableFunc(scored, func(a, b domain.ScoredPassage) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
