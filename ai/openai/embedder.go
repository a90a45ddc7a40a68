package openai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fingerprint/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder for one registry model using an
// OpenAI-compatible embedding API.
type Embedder struct {
	model     ai.Model
	embedder  embeddings.Embedder
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance. pool may be nil, in which case
// sub-batches are sent one after another.
func newEmbedder(config *ai.Config, model ai.Model, pool *ants.Pool) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(model.ID),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		model:     model,
		embedder:  embedder,
		pool:      pool,
		batchSize: config.BatchSize,
		logger:    slog.Default().With("component", "openai-embedder", "model", model.Name),
	}, nil
}

// NewEmbedder creates an embedder for a registry model name.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, model string) (ai.Embedder, error) {
	m, err := ai.ResolveModel(model)
	if err != nil {
		return nil, err
	}
	return newEmbedder(config, m, nil)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1, got %d", ai.ErrVectorCountMismatch, len(vectors))
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// Inputs larger than the configured batch size are split into sub-batches
// which run concurrently on the provider's worker pool. Output order always
// matches input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	if len(texts) <= e.batchSize || e.pool == nil {
		return e.embedBatch(ctx, texts)
	}

	result := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			vectors, err := e.embedBatch(ctx, texts[start:end])
			if err != nil {
				fail(err)
				return
			}
			copy(result[start:end], vectors)
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ai.ErrVectorCountMismatch, len(texts), len(vectors))
	}
	return vectors, nil
}
