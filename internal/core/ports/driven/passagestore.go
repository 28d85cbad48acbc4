package driven

import (
	"context"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// PassageStore persists documents and their embedded passages.
// Index snapshots are built from the full passage list.
type PassageStore interface {
	// SaveDocument replaces a document and all of its passages.
	SaveDocument(ctx context.Context, doc *domain.Document, passages []domain.Passage) error

	// DeleteDocument removes a document and its passages.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all stored documents ordered by ID.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListPassages returns every passage in insertion order.
	ListPassages(ctx context.Context) ([]domain.Passage, error)

	// RecordIngestRun stores a summary of one ingestion run.
	RecordIngestRun(ctx context.Context, run domain.IngestRun) error

	// Path returns the underlying database path, used for change watching.
	Path() string

	// Close releases resources.
	Close() error
}
