package ai

import "errors"

var (
	// ErrUnknownModel is returned for model names outside the registry.
	ErrUnknownModel = errors.New("unknown embedding model")

	// ErrUnknownProvider is returned for provider kinds that are not supported.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrProviderClosed is returned when a closed provider is used.
	ErrProviderClosed = errors.New("provider is closed")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrVectorCountMismatch is returned when a batch yields a different number
	// of vectors than texts.
	ErrVectorCountMismatch = errors.New("embedding count mismatch")
)
