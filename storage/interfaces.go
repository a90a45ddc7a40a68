package storage

import "context"

// VectorCache persists embedding vectors keyed by (model, text).
// Implementations must be thread-safe and support concurrent access.
type VectorCache interface {
	// GetVectors looks up the vectors for texts under model. The returned
	// slices are aligned with texts; found[i] is false for misses, in which
	// case vectors[i] is nil.
	GetVectors(ctx context.Context, model string, texts []string) (vectors [][]float32, found []bool, err error)

	// PutVectors stores vectors for texts under model, replacing existing
	// entries. texts and vectors must have the same length.
	PutVectors(ctx context.Context, model string, texts []string, vectors [][]float32) error

	// Count returns the number of vectors cached for model.
	Count(ctx context.Context, model string) (int, error)

	// Close closes the cache and releases resources.
	Close() error
}
