package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/fingerprint/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingServer answers /v1/embeddings with a two-element vector per
// input: the input's length and the requested model's length.
type fakeEmbeddingServer struct {
	*httptest.Server
	requests atomic.Int32
	mu       sync.Mutex
	models   []string
	status   int
}

func newFakeEmbeddingServer(t *testing.T) *fakeEmbeddingServer {
	t.Helper()
	f := &fakeEmbeddingServer{status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		f.requests.Add(1)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.models = append(f.models, req.Model)
		status := f.status
		f.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(len(text)), float32(len(req.Model))}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	t.Cleanup(f.Close)
	return f
}

func TestProvider_Embedder(t *testing.T) {
	server := newFakeEmbeddingServer(t)
	provider, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
	require.NoError(t, err)
	defer provider.Close()

	t.Run("unknown model", func(t *testing.T) {
		_, err := provider.Embedder("gpt")
		assert.ErrorIs(t, err, ai.ErrUnknownModel)
	})

	t.Run("embedders are reused per model", func(t *testing.T) {
		a, err := provider.Embedder("bert")
		require.NoError(t, err)
		b, err := provider.Embedder("BERT")
		require.NoError(t, err)
		assert.Same(t, a, b)

		c, err := provider.Embedder("mpnet")
		require.NoError(t, err)
		assert.NotSame(t, a, c)
	})

	t.Run("sends the upstream model id", func(t *testing.T) {
		e, err := provider.Embedder("albert")
		require.NoError(t, err)

		vec, err := e.EmbedText(context.Background(), "graph theory")
		require.NoError(t, err)
		assert.Equal(t, []float32{12, float32(len("sentence-transformers/paraphrase-albert-small-v2"))}, vec)

		server.mu.Lock()
		defer server.mu.Unlock()
		assert.Contains(t, server.models, "sentence-transformers/paraphrase-albert-small-v2")
	})
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		server := newFakeEmbeddingServer(t)
		provider, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
		require.NoError(t, err)
		defer provider.Close()

		e, err := provider.Embedder("bert")
		require.NoError(t, err)
		vectors, err := e.EmbedTexts(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
		assert.Equal(t, int32(0), server.requests.Load())
	})

	t.Run("large batches are split and keep order", func(t *testing.T) {
		server := newFakeEmbeddingServer(t)
		provider, err := NewProvider(ai.NewConfig(
			ai.WithEmbeddingHost(server.URL),
			ai.WithBatchSize(2),
			ai.WithConcurrency(3),
		))
		require.NoError(t, err)
		defer provider.Close()

		e, err := provider.Embedder("bert")
		require.NoError(t, err)

		texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "g"}
		vectors, err := e.EmbedTexts(ctx, texts)
		require.NoError(t, err)
		require.Len(t, vectors, len(texts))
		for i, text := range texts {
			assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
		}
		assert.Equal(t, int32(4), server.requests.Load())
	})

	t.Run("server errors are returned", func(t *testing.T) {
		server := newFakeEmbeddingServer(t)
		server.status = http.StatusServiceUnavailable
		provider, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
		require.NoError(t, err)
		defer provider.Close()

		e, err := provider.Embedder("bert")
		require.NoError(t, err)
		_, err = e.EmbedTexts(ctx, []string{"x"})
		require.Error(t, err)
	})
}

func TestProvider_Close(t *testing.T) {
	server := newFakeEmbeddingServer(t)
	provider, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
	require.NoError(t, err)

	require.NoError(t, provider.Close())
	require.NoError(t, provider.Close())

	_, err = provider.Embedder("bert")
	assert.ErrorIs(t, err, ai.ErrProviderClosed)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost("")))
	assert.Error(t, err)
}
