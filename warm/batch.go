package warm

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/storage"
)

// BatchProcessor embeds the uncached texts of a batch and stores them.
type BatchProcessor struct {
	store          storage.VectorCache
	embedder       ai.Embedder
	model          string
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor for model.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(store storage.VectorCache, embedder ai.Embedder, model string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		embedder:       embedder,
		model:          model,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the texts not yet in the store and writes them back.
// It returns how many texts were embedded.
func (bp *BatchProcessor) Process(ctx context.Context, texts []string) (int, error) {
	if len(texts) == 0 {
		return 0, nil
	}

	_, found, err := bp.store.GetVectors(ctx, bp.model, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache: %w", err)
	}
	var missing []string
	for i, ok := range found {
		if !ok {
			missing = append(missing, texts[i])
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	var embeddings [][]float32
	err = ai.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, missing)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}
	if len(embeddings) != len(missing) {
		return 0, fmt.Errorf("%w: expected %d, got %d", ai.ErrVectorCountMismatch, len(missing), len(embeddings))
	}

	if err := bp.store.PutVectors(ctx, bp.model, missing, embeddings); err != nil {
		return 0, fmt.Errorf("failed to write cache: %w", err)
	}
	return len(missing), nil
}
