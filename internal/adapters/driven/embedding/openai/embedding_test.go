package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, model string, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: model})
	require.NoError(t, err)
	return s
}

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorContains(t, err, "API key is required")

	s, err := NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, s.Dimensions())
	assert.True(t, s.sendDims)

	s, err = NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-ada-002"})
	require.NoError(t, err)
	assert.Equal(t, 1536, s.Dimensions())
	assert.False(t, s.sendDims)
}

func TestEmbeddingService_EmbedBatch_OrdersByIndex(t *testing.T) {
	var got embeddingRequest
	s := newTestService(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[2]},{"index":0,"embedding":[1]}]}`))
	})

	vecs, err := s.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
	assert.Equal(t, 1536, got.Dimensions)
	assert.Equal(t, []string{"first", "second"}, got.Input)
}

func TestEmbeddingService_Embed(t *testing.T) {
	s := newTestService(t, "", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5,0.5]}]}`))
	})

	vec, err := s.Embed(context.Background(), "grief")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
}

func TestEmbeddingService_EmbedBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusBadRequest, `{"error":{"message":"too long"}}`, "openai error: too long"},
		{"missing vector", http.StatusOK, `{"data":[{"index":0,"embedding":[1]}]}`, "no embedding returned for input 1"},
		{"bad index", http.StatusOK, `{"data":[{"index":5,"embedding":[1]}]}`, "index 5 out of range"},
		{"non-json status", http.StatusServiceUnavailable, `busy`, "openai error (status 503): busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, "", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEmbeddingService_Ping(t *testing.T) {
	s := newTestService(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
	})

	assert.NoError(t, s.Ping(context.Background()))
}
