package fingerprint

import "errors"

var (
	// ErrProviderRequired is returned when an engine is created without a provider.
	ErrProviderRequired = errors.New("embedding provider required")

	// ErrNoTableSource is returned when a profile must be loaded but no table
	// source was configured.
	ErrNoTableSource = errors.New("no table source configured")

	// ErrTableLoad wraps failures of the table source.
	ErrTableLoad = errors.New("failed to load table")
)
