package splitter

import (
	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/splitter/chunker"
)

// Built-in splitter names.
const (
	NameText     = "text"
	NameMarkdown = "markdown"
)

// RegisterDefaults registers the built-in splitters.
func RegisterDefaults(r *Registry) {
	r.Register(NameText, buildWith(NameText, chunker.TextSeparators))
	r.Register(NameMarkdown, buildWith(NameMarkdown, chunker.MarkdownSeparators))
}

func buildWith(name string, separators []string) BuilderFunc {
	return func(cfg domain.ChunkerSettings) (driven.Splitter, error) {
		return chunker.New(
			chunker.WithName(name),
			chunker.WithChunkSize(cfg.Size),
			chunker.WithOverlap(cfg.Overlap),
			chunker.WithSeparators(separators),
		), nil
	}
}

// NewDefault builds the splitter used by ingestion: markdown files are
// split on headings, everything else as prose.
func NewDefault(cfg domain.ChunkerSettings) (*ByExtension, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	text, err := r.Build(NameText, cfg)
	if err != nil {
		return nil, err
	}
	markdown, err := r.Build(NameMarkdown, cfg)
	if err != nil {
		return nil, err
	}
	return NewByExtension(text, map[string]driven.Splitter{
		".md":       markdown,
		".markdown": markdown,
	}), nil
}
