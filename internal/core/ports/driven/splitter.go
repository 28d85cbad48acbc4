package driven

import (
	"context"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// Splitter divides a document into passages ready for embedding.
type Splitter interface {
	// Name returns the splitter name for logging.
	Name() string

	// Split returns un-embedded passages for the document, in document order.
	Split(ctx context.Context, doc *domain.Document) ([]domain.Passage, error)
}
