package cache

import (
	"context"
	"log/slog"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/storage"
)

// Persistent wraps an Embedder with a storage.VectorCache. Store failures are
// logged and never fail an embedding call; the inner embedder is the source
// of truth.
type Persistent struct {
	inner  ai.Embedder
	model  string
	store  storage.VectorCache
	logger *slog.Logger
}

// NewPersistent creates an embedder for model that reads and writes through store.
func NewPersistent(inner ai.Embedder, model string, store storage.VectorCache) *Persistent {
	return &Persistent{
		inner:  inner,
		model:  model,
		store:  store,
		logger: slog.Default().With("component", "persistent-cache", "model", model),
	}
}

// EmbedText embeds a single text through the store.
func (p *Persistent) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts serves stored vectors and embeds and stores the rest.
func (p *Persistent) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedMissing(ctx, texts, func(texts []string) ([][]float32, []bool, error) {
		vectors, found, err := p.store.GetVectors(ctx, p.model, texts)
		if err != nil {
			p.logger.Warn("vector cache read failed", "count", len(texts), "err", err)
			return make([][]float32, len(texts)), make([]bool, len(texts)), nil
		}
		return vectors, found, nil
	}, p.inner.EmbedTexts, func(texts []string, vectors [][]float32) {
		if err := p.store.PutVectors(ctx, p.model, texts, vectors); err != nil {
			p.logger.Warn("vector cache write failed", "count", len(texts), "err", err)
			return
		}
		p.logger.Debug("cached vectors", "count", len(texts))
	})
}

// Inner returns the underlying embedder.
func (p *Persistent) Inner() ai.Embedder {
	return p.inner
}
