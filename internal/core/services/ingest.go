package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
	"github.com/custodia-labs/parable/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultEmbedConcurrency bounds how many documents are embedded at once.
const DefaultEmbedConcurrency = 4

// embedBatchSize bounds the texts sent in one EmbedBatch call.
const embedBatchSize = 32

// IngestService splits, embeds and persists documents, then swaps the
// passage index to a fresh snapshot.
type IngestService struct {
	splitter    driven.Splitter
	embedder    driven.EmbeddingService
	store       driven.PassageStore
	index       driven.PassageIndex
	concurrency int
}

// NewIngestService creates an ingest service.
func NewIngestService(
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	store driven.PassageStore,
	index driven.PassageIndex,
) *IngestService {
	return &IngestService{
		splitter:    splitter,
		embedder:    embedder,
		store:       store,
		index:       index,
		concurrency: DefaultEmbedConcurrency,
	}
}

// Ingest processes docs concurrently and records the run. Documents are
// replaced wholesale, so re-ingesting a document drops its old passages.
func (s *IngestService) Ingest(ctx context.Context, docs []domain.Document) (domain.IngestRun, error) {
	if s.embedder == nil {
		return domain.IngestRun{}, domain.ErrEmbeddingUnavailable
	}

	for i := range docs {
		if strings.TrimSpace(docs[i].ID) == "" {
			return domain.IngestRun{}, fmt.Errorf("%w: document %d has no ID", domain.ErrInvalidInput, i)
		}
	}

	run := domain.IngestRun{
		ID:             uuid.NewString(),
		StartedAt:      time.Now(),
		EmbeddingModel: s.embedder.ModelName(),
	}
	logger.Section("Ingest")
	logger.Info("Ingesting %d document(s) with %s", len(docs), s.splitter.Name())

	counts := make([]int, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range docs {
		doc := &docs[i]
		g.Go(func() error {
			n, err := s.ingestOne(gctx, doc)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", doc.ID, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.IngestRun{}, err
	}

	for _, n := range counts {
		run.Passages += n
	}
	run.Documents = len(docs)
	run.FinishedAt = time.Now()

	if err := s.store.RecordIngestRun(ctx, run); err != nil {
		return domain.IngestRun{}, fmt.Errorf("record ingest run: %w", err)
	}
	if err := s.Reload(ctx); err != nil {
		return domain.IngestRun{}, err
	}

	logger.Info("Ingested %d passage(s) from %d document(s)", run.Passages, run.Documents)
	return run, nil
}

func (s *IngestService) ingestOne(ctx context.Context, doc *domain.Document) (int, error) {
	passages, err := s.splitter.Split(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("split: %w", err)
	}

	for start := 0; start < len(passages); start += embedBatchSize {
		end := min(start+embedBatchSize, len(passages))
		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = passages[start+i].Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed: %w", err)
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("embed: got %d vectors for %d passages", len(vectors), len(texts))
		}
		for i := range vectors {
			passages[start+i].Embedding = vectors[i]
		}
	}

	doc.IndexedAt = time.Now()
	if err := s.store.SaveDocument(ctx, doc, passages); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	logger.Debug("Document %s: %d passage(s)", doc.ID, len(passages))
	return len(passages), nil
}

// Reload rebuilds the index snapshot from the passage store and swaps it in.
// Queries in flight keep the snapshot they started with.
func (s *IngestService) Reload(ctx context.Context) error {
	passages, err := s.store.ListPassages(ctx)
	if err != nil {
		return fmt.Errorf("load passages: %w", err)
	}
	s.index.Swap(passages)
	logger.Debug("Index snapshot holds %d passage(s)", len(passages))
	return nil
}
