package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/fingerprint/ai"
)

// DefaultLRUSize is the default number of vectors kept in memory.
// At 768 dimensions * 4 bytes * 4096 entries ≈ 12MB memory.
const DefaultLRUSize = 4096

// LRU wraps an Embedder with an in-memory least-recently-used cache.
type LRU struct {
	inner ai.Embedder
	model string
	cache *lru.Cache[string, []float32]
}

// NewLRU creates a cached embedder for model. A size <= 0 uses DefaultLRUSize.
func NewLRU(inner ai.Embedder, model string, size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &LRU{inner: inner, model: model, cache: c}, nil
}

// cacheKey generates a unique key for the cache based on text and model.
func (c *LRU) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text + "\x00" + c.model))
	return hex.EncodeToString(hash[:])
}

// EmbedText returns the cached vector if available, otherwise computes and caches it.
func (c *LRU) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedTexts checks each text against the cache and sends the distinct
// misses to the inner embedder in one batch.
func (c *LRU) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedMissing(ctx, texts,
		func(texts []string) ([][]float32, []bool, error) {
			vectors := make([][]float32, len(texts))
			found := make([]bool, len(texts))
			for i, text := range texts {
				vectors[i], found[i] = c.cache.Get(c.cacheKey(text))
			}
			return vectors, found, nil
		},
		c.inner.EmbedTexts,
		func(texts []string, vectors [][]float32) {
			for i, text := range texts {
				c.cache.Add(c.cacheKey(text), vectors[i])
			}
		},
	)
}

// Len returns the number of cached vectors.
func (c *LRU) Len() int {
	return c.cache.Len()
}

// Inner returns the underlying embedder.
func (c *LRU) Inner() ai.Embedder {
	return c.inner
}

// embedMissing is the shared batch flow of both caches: look up, embed the
// distinct misses once, store them, and assemble results in input order.
func embedMissing(
	ctx context.Context,
	texts []string,
	lookup func(texts []string) ([][]float32, []bool, error),
	embed func(ctx context.Context, texts []string) ([][]float32, error),
	store func(texts []string, vectors [][]float32),
) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results, found, err := lookup(texts)
	if err != nil {
		return nil, err
	}

	var missing []string
	positions := make(map[string][]int)
	for i, text := range texts {
		if found[i] {
			continue
		}
		if _, seen := positions[text]; !seen {
			missing = append(missing, text)
		}
		positions[text] = append(positions[text], i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	vectors, err := embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ai.ErrVectorCountMismatch, len(missing), len(vectors))
	}

	for j, text := range missing {
		for _, i := range positions[text] {
			results[i] = vectors[j]
		}
	}
	store(missing, vectors)
	return results, nil
}
