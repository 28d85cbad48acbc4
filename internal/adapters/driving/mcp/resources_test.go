package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/parable/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "parable://documents/gita-2",
			expected: "gita-2",
		},
		{
			name:     "nested document ID",
			uri:      "parable://documents/fables/crow.md",
			expected: "fables/crow.md",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/gita-2",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	server := newTestServer(t, &mockGuidanceService{
		stats: domain.IndexStats{Passages: 42, Documents: 3, LLMModel: "llama3.2", RetrievalK: 5},
	})

	result, err := server.handleStatsResource(context.Background(), readRequest("parable://stats"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.Contains(t, result.Contents[0].Text, `"passages": 42`)
	assert.Contains(t, result.Contents[0].Text, `"llm_model": "llama3.2"`)
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("no library returns empty list", func(t *testing.T) {
		server := newTestServer(t, &mockGuidanceService{})

		result, err := server.handleDocumentsResource(ctx, readRequest("parable://documents"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists documents with URIs", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Guidance: &mockGuidanceService{},
			Library: &mockLibrary{documents: []domain.Document{
				{ID: "gita-2", Title: "Chapter 2", SourceLabel: "Bhagavad Gita 2", Content: "long text"},
			}},
		})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, readRequest("parable://documents"))

		require.NoError(t, err)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"id": "gita-2"`)
		assert.Contains(t, text, `"uri": "parable://documents/gita-2"`)
		assert.NotContains(t, text, "long text")
	})

	t.Run("library error", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Guidance: &mockGuidanceService{},
			Library:  &mockLibrary{err: errors.New("database is locked")},
		})
		require.NoError(t, err)

		_, err = server.handleDocumentsResource(ctx, readRequest("parable://documents"))

		assert.ErrorContains(t, err, "listing documents")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()
	library := &mockLibrary{documents: []domain.Document{
		{ID: "fables/crow.md", Content: "A thirsty crow."},
	}}
	server, err := NewServer(&Ports{Guidance: &mockGuidanceService{}, Library: library})
	require.NoError(t, err)

	t.Run("returns content", func(t *testing.T) {
		result, err := server.handleDocumentContentResource(ctx, readRequest("parable://documents/fables/crow.md"))

		require.NoError(t, err)
		assert.Equal(t, "A thirsty crow.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := server.handleDocumentContentResource(ctx, readRequest("parable://documents/missing"))
		assert.Error(t, err)
	})

	t.Run("no library", func(t *testing.T) {
		bare := newTestServer(t, &mockGuidanceService{})
		_, err := bare.handleDocumentContentResource(ctx, readRequest("parable://documents/fables/crow.md"))
		assert.Error(t, err)
	})
}
