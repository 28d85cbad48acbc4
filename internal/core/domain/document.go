package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is a source text supplied to ingestion before it is split into passages.
type Document struct {
	// ID is the stable identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// SourceLabel is the citation shown to users (e.g. "Bhagavad Gita, Chapter 2").
	SourceLabel string

	// Path is the file the content was read from, if any.
	Path string

	// Content is the full text before chunking.
	Content string

	// IndexedAt is when the document was last ingested.
	IndexedAt time.Time
}

// Passage is an immutable unit of corpus text.
// Passages are created once during ingestion and owned by the passage index.
type Passage struct {
	// ID is stable and derived from the document ID and text.
	ID string

	// DocumentID links to the source Document.
	DocumentID string

	// Text is the passage content.
	Text string

	// SourceLabel is a human-readable citation for the passage.
	SourceLabel string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// PassageID derives a content-addressed passage identifier.
func PassageID(documentID, text string) string {
	sum := sha256.Sum256([]byte(documentID + "\x00" + text))
	return hex.EncodeToString(sum[:16])
}

// ScoredPassage pairs a passage with its similarity to a query.
type ScoredPassage struct {
	Passage Passage
	Score   float64
}

// RetrievalResult is an ordered, document-deduplicated list of passages.
// Scores are non-increasing and at most one passage per DocumentID appears.
type RetrievalResult struct {
	Passages []ScoredPassage
}

// Len returns the number of passages in the result.
func (r RetrievalResult) Len() int {
	return len(r.Passages)
}

// IsEmpty returns true if no passages were retrieved.
func (r RetrievalResult) IsEmpty() bool {
	return len(r.Passages) == 0
}

// Plain returns the passages without scores, preserving order.
func (r RetrievalResult) Plain() []Passage {
	out := make([]Passage, len(r.Passages))
	for i := range r.Passages {
		out[i] = r.Passages[i].Passage
	}
	return out
}

// IndexStats summarises the loaded corpus and active models.
type IndexStats struct {
	Passages       int    `json:"passages"`
	Documents      int    `json:"documents"`
	LLMModel       string `json:"llm_model"`
	EmbeddingModel string `json:"embedding_model"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	RetrievalK     int    `json:"retrieval_k"`
}

// IngestRun records the result of one ingestion pass.
type IngestRun struct {
	// ID uniquely identifies the run.
	ID string

	// StartedAt is when ingestion began.
	StartedAt time.Time

	// FinishedAt is when ingestion completed.
	FinishedAt time.Time

	// Documents is the number of documents ingested.
	Documents int

	// Passages is the number of passages written.
	Passages int

	// EmbeddingModel is the model used to embed passages.
	EmbeddingModel string
}
