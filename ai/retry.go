package ai

import (
	"context"
	"log/slog"
	"time"
)

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "err", lastErr)

		if attempt == maxAttempts {
			break
		}

		// baseDelay * 2^(attempt-1)
		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// retryEmbedder retries failed embedding calls with backoff.
type retryEmbedder struct {
	inner       Embedder
	maxAttempts int
	baseDelay   time.Duration
}

// WithRetry wraps an Embedder so that failed calls are retried up to
// maxAttempts times. A maxAttempts of 1 or less returns inner unchanged.
func WithRetry(inner Embedder, maxAttempts int, baseDelay time.Duration) Embedder {
	if maxAttempts <= 1 {
		return inner
	}
	return &retryEmbedder{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (r *retryEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vec, err = r.inner.EmbedText(ctx, text)
		return err
	}, r.maxAttempts, r.baseDelay)
	return vec, err
}

func (r *retryEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vecs, err = r.inner.EmbedTexts(ctx, texts)
		return err
	}, r.maxAttempts, r.baseDelay)
	return vecs, err
}
