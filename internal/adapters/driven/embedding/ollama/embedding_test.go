package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService_Dimensions(t *testing.T) {
	assert.Equal(t, 768, NewEmbeddingService(Config{}).Dimensions())
	assert.Equal(t, 384, NewEmbeddingService(Config{Model: "all-minilm"}).Dimensions())
	assert.Equal(t, DefaultDimensions, NewEmbeddingService(Config{Model: "custom"}).Dimensions())
	assert.Equal(t, 42, NewEmbeddingService(Config{Model: "custom", Dimensions: 42}).Dimensions())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"embeddings":[[0.5,1],[0.25,-1]]}`))
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	vecs, err := s.EmbedBatch(context.Background(), []string{"duty", "grief"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 1}, {0.25, -1}}, vecs)
	assert.Equal(t, []string{"duty", "grief"}, got.Input)
	assert.Equal(t, DefaultModel, got.Model)
}

func TestEmbeddingService_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2,3]]}`))
	}))
	defer srv.Close()

	vec, err := NewEmbeddingService(Config{BaseURL: srv.URL}).Embed(context.Background(), "duty")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	vecs, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"}).EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbeddingService_EmbedBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"status", http.StatusInternalServerError, "boom", "ollama error (status 500): boom"},
		{"count mismatch", http.StatusOK, `{"embeddings":[[1]]}`, "got 1 embeddings for 2 inputs"},
		{"error field", http.StatusOK, `{"error":"model not loaded"}`, "model not loaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewEmbeddingService(Config{BaseURL: srv.URL}).EmbedBatch(context.Background(), []string{"a", "b"})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEmbeddingService_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.NoError(t, s.Close())
}
