// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Provider kinds understood by the embedding provider factory.
const (
	ProviderOpenAI = "openai"
	ProviderStatic = "static"
)

// Config holds configuration for embedding providers.
type Config struct {
	// Provider selects the backend: "openai" for an OpenAI-compatible
	// embedding service, "static" for the offline hashing embedder.
	Provider string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// Token is the API token sent to the embedding service.
	// Local servers accept any value; "none" is used when empty.
	Token string

	// BatchSize is the maximum number of texts sent in one embedding request.
	// Default: 64
	BatchSize int

	// Concurrency is the number of embedding requests allowed in flight for a
	// single large batch.
	// Default: 4
	Concurrency int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the provider kind.
func WithProvider(kind string) ConfigOption {
	return func(c *Config) {
		c.Provider = kind
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithBatchSize sets the per-request batch size.
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// WithConcurrency sets the number of concurrent embedding requests.
func WithConcurrency(n int) ConfigOption {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible embedding server.
func DefaultConfig() *Config {
	return &Config{
		Provider:      ProviderOpenAI,
		EmbeddingHost: "http://localhost:11434/v1",
		BatchSize:     64,
		Concurrency:   4,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingHost("http://localhost:8080"),
//	    WithBatchSize(32),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It lowercases the provider kind and adds the /v1 suffix to the host if
// missing, which is required by most OpenAI-compatible APIs (Ollama, LocalAI,
// vLLM, etc).
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
	case ProviderStatic:
	default:
		return errors.Join(errors.New("ai config: invalid Provider"), ErrUnknownProvider)
	}
	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be at least 1")
	}
	if c.Concurrency < 1 {
		return errors.New("ai config: Concurrency must be at least 1")
	}
	return nil
}
