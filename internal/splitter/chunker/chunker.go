// Package chunker splits documents into overlapping passages.
package chunker

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per passage.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// TextSeparators break prose at paragraph, line, sentence and word boundaries.
var TextSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// MarkdownSeparators prefer heading and section boundaries.
var MarkdownSeparators = []string{"\n## ", "\n### ", "\n#### ", "\n\n", "\n", ". ", " ", ""}

// Ensure Chunker implements the interface.
var _ driven.Splitter = (*Chunker)(nil)

// Chunker splits document content with a recursive character splitter.
type Chunker struct {
	name       string
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithSeparators sets the boundaries tried in order, coarsest first.
func WithSeparators(separators []string) Option {
	return func(c *Chunker) {
		if len(separators) > 0 {
			c.separators = separators
		}
	}
}

// WithName sets the name reported in logs.
func WithName(name string) Option {
	return func(c *Chunker) {
		if name != "" {
			c.name = name
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		name:       "chunker",
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: TextSeparators,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return c.name
}

// Split divides the document content into passages. Each passage carries
// the document's source label and a content-derived ID, so re-splitting
// unchanged text yields the same IDs. Repeated text within one document
// is kept once.
func (c *Chunker) Split(ctx context.Context, doc *domain.Document) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.overlap),
		textsplitter.WithSeparators(c.separators),
	)
	pieces, err := splitter.SplitText(doc.Content)
	if err != nil {
		return nil, err
	}

	label := sourceLabel(doc)
	passages := make([]domain.Passage, 0, len(pieces))
	seen := make(map[string]struct{}, len(pieces))
	for _, piece := range pieces {
		text := strings.TrimSpace(piece)
		if text == "" {
			continue
		}
		id := domain.PassageID(doc.ID, text)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		passages = append(passages, domain.Passage{
			ID:          id,
			DocumentID:  doc.ID,
			Text:        text,
			SourceLabel: label,
			Position:    len(passages),
		})
	}

	return passages, nil
}

func sourceLabel(doc *domain.Document) string {
	switch {
	case doc.SourceLabel != "":
		return doc.SourceLabel
	case doc.Title != "":
		return doc.Title
	default:
		return doc.ID
	}
}
