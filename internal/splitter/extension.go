package splitter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// Ensure ByExtension implements the interface.
var _ driven.Splitter = (*ByExtension)(nil)

// ByExtension routes each document to a splitter chosen by the extension
// of its path. Documents without a matching extension use the fallback.
type ByExtension struct {
	fallback driven.Splitter
	byExt    map[string]driven.Splitter
}

// NewByExtension creates a router. Extensions are matched case-insensitively
// and include the leading dot.
func NewByExtension(fallback driven.Splitter, byExt map[string]driven.Splitter) *ByExtension {
	routes := make(map[string]driven.Splitter, len(byExt))
	for ext, s := range byExt {
		routes[strings.ToLower(ext)] = s
	}
	return &ByExtension{fallback: fallback, byExt: routes}
}

// Name returns the splitter name.
func (b *ByExtension) Name() string {
	return "by-extension(" + b.fallback.Name() + ")"
}

// Split delegates to the splitter for the document's extension.
func (b *ByExtension) Split(ctx context.Context, doc *domain.Document) ([]domain.Passage, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	s := b.fallback
	if routed, ok := b.byExt[strings.ToLower(filepath.Ext(doc.Path))]; ok {
		s = routed
	}

	passages, err := s.Split(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("splitter %s: %w", s.Name(), err)
	}
	return passages, nil
}
