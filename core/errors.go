package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema indicates that a table lacks one or more required columns.
	ErrSchema = errors.New("missing required columns")

	// ErrNoMatch indicates that a topic query could not be resolved to a known topic.
	ErrNoMatch = errors.New("no matching topic found")

	// ErrProvider indicates that the embedding provider failed.
	ErrProvider = errors.New("embedding provider failed")

	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid expertise record")

	// ErrEmptyResearcher indicates the Researcher field is empty.
	ErrEmptyResearcher = errors.New("researcher name cannot be empty")

	// ErrEmptyTopic indicates the Topic field is empty.
	ErrEmptyTopic = errors.New("topic name cannot be empty")

	// ErrPercentageRange indicates a percentage outside [0, 100].
	ErrPercentageRange = errors.New("percentage must be between 0 and 100")
)

// SchemaError reports the required columns absent from a table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchema.Error(), strings.Join(e.Missing, ", "))
}

// Is lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NoMatchError reports a topic that could not be resolved, together with the
// closest known topics to offer instead.
type NoMatchError struct {
	Query       string
	Suggestions []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("%s for %q", ErrNoMatch.Error(), e.Query)
}

// Is lets errors.Is(err, ErrNoMatch) match.
func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// ProviderError wraps a failure of the embedding provider. The original error
// is available through errors.Unwrap and errors.As.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s: %v", ErrProvider.Error(), e.Err)
	}
	return fmt.Sprintf("%s (model %s): %v", ErrProvider.Error(), e.Model, e.Err)
}

// Is lets errors.Is(err, ErrProvider) match.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
