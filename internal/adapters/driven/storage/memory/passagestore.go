package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// Ensure PassageStore implements the interface.
var _ driven.PassageStore = (*PassageStore)(nil)

// PassageStore is an in-memory implementation of driven.PassageStore for testing.
type PassageStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	passages map[string][]domain.Passage
	order    []string // document IDs in first-save order
	runs     []domain.IngestRun
}

// NewPassageStore creates a new in-memory passage store.
func NewPassageStore() *PassageStore {
	return &PassageStore{
		docs:     make(map[string]domain.Document),
		passages: make(map[string][]domain.Passage),
	}
}

// SaveDocument replaces a document and all of its passages.
func (s *PassageStore) SaveDocument(_ context.Context, doc *domain.Document, passages []domain.Passage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.ID]; !ok {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = *doc
	s.passages[doc.ID] = slices.Clone(passages)
	return nil
}

// DeleteDocument removes a document and its passages.
func (s *PassageStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	delete(s.passages, id)
	s.order = slices.DeleteFunc(s.order, func(d string) bool { return d == id })
	return nil
}

// ListDocuments returns all stored documents ordered by ID.
func (s *PassageStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Document) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListPassages returns every passage, grouped by document in save order.
func (s *PassageStore) ListPassages(_ context.Context) ([]domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Passage
	for _, id := range s.order {
		out = append(out, s.passages[id]...)
	}
	return out, nil
}

// RecordIngestRun stores a summary of one ingestion run.
func (s *PassageStore) RecordIngestRun(_ context.Context, run domain.IngestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// Runs returns the recorded ingest runs.
func (s *PassageStore) Runs() []domain.IngestRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.runs)
}

// Path returns ":memory:".
func (s *PassageStore) Path() string {
	return ":memory:"
}

// Close is a no-op.
func (s *PassageStore) Close() error {
	return nil
}
