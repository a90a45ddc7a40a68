package warm

import "errors"

var (
	// ErrNoModels is returned when Run is called without any model.
	ErrNoModels = errors.New("at least one model is required")

	// ErrInvalidBatchSize is returned for a batch size below 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
)
