package ai

import "context"

// Embedder maps text to fixed-length vectors.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider hands out embedders for the named models in the registry.
type Provider interface {
	// Embedder returns the embedder for a registered model name such as "mpnet".
	// The same name always maps to the same vector space.
	// Returns ErrUnknownModel for names outside the registry.
	Embedder(model string) (Embedder, error)

	// Close releases resources held by the provider and its embedders.
	// After Close is called, the provider and its embedders should not be used.
	Close() error
}
