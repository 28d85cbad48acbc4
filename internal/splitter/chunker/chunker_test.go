package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/parable/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
		if c.Name() != "chunker" {
			t.Errorf("expected name 'chunker', got %q", c.Name())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap != 25 {
			t.Errorf("expected overlap reduced to 25, got %d", c.overlap)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1), WithSeparators(nil), WithName(""))
		if c.chunkSize != DefaultChunkSize || c.overlap != DefaultChunkOverlap {
			t.Errorf("expected defaults, got %d/%d", c.chunkSize, c.overlap)
		}
		if len(c.separators) != len(TextSeparators) {
			t.Errorf("expected text separators, got %v", c.separators)
		}
		if c.Name() != "chunker" {
			t.Errorf("expected default name, got %q", c.Name())
		}
	})
}

func TestChunker_Split_Empty(t *testing.T) {
	for _, content := range []string{"", "  \n\n \t"} {
		passages, err := New().Split(context.Background(), &domain.Document{ID: "doc", Content: content})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(passages) != 0 {
			t.Errorf("expected no passages for %q, got %d", content, len(passages))
		}
	}
}

func TestChunker_Split_ShortDocument(t *testing.T) {
	doc := &domain.Document{
		ID:          "gita-2",
		SourceLabel: "Bhagavad Gita 2",
		Content:     "Arjuna sat down in the chariot.",
	}

	passages, err := New().Split(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}

	p := passages[0]
	if p.Text != "Arjuna sat down in the chariot." {
		t.Errorf("unexpected text %q", p.Text)
	}
	if p.ID != domain.PassageID("gita-2", p.Text) {
		t.Errorf("expected content-derived ID, got %q", p.ID)
	}
	if p.DocumentID != "gita-2" || p.SourceLabel != "Bhagavad Gita 2" || p.Position != 0 {
		t.Errorf("unexpected passage metadata %+v", p)
	}
	if p.Embedding != nil {
		t.Error("split passages must not carry embeddings")
	}
}

func TestChunker_Split_LongDocument(t *testing.T) {
	var b strings.Builder
	for i := range 40 {
		fmt.Fprintf(&b, "Verse %d tells Arjuna to act without attachment to the fruits of action. ", i)
	}
	doc := &domain.Document{ID: "gita-3", Content: b.String()}

	c := New(WithChunkSize(200), WithOverlap(40))
	passages, err := c.Split(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) < 2 {
		t.Fatalf("expected several passages, got %d", len(passages))
	}

	for i, p := range passages {
		if n := utf8.RuneCountInString(p.Text); n > 200 {
			t.Errorf("passage %d has %d characters, limit is 200", i, n)
		}
		if p.Position != i {
			t.Errorf("passage %d has position %d", i, p.Position)
		}
		if p.SourceLabel != "gita-3" {
			t.Errorf("expected ID as label fallback, got %q", p.SourceLabel)
		}
	}
}

func TestChunker_Split_DeterministicIDs(t *testing.T) {
	doc := &domain.Document{ID: "gita-4", Content: strings.Repeat("The wise grieve neither for the living nor the dead. ", 30)}
	c := New(WithChunkSize(150), WithOverlap(0))

	first, err := c.Split(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Split(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("split is not deterministic: %d vs %d passages", len(first), len(second))
	}
	seen := make(map[string]bool)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("passage %d ID changed between splits", i)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate passage ID %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}

func TestChunker_Split_TitleLabel(t *testing.T) {
	doc := &domain.Document{ID: "mb-1", Title: "Mahabharata, Adi Parva", Content: "Bhishma took his vow."}

	passages, err := New().Split(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 || passages[0].SourceLabel != "Mahabharata, Adi Parva" {
		t.Errorf("expected title as label, got %+v", passages)
	}
}

func TestChunker_Split_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Split(ctx, &domain.Document{ID: "doc", Content: "text"})
	if err == nil {
		t.Fatal("expected context error")
	}
}
