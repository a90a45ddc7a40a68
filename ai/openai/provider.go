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


package openai

import (
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fingerprint/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// Embedders are created lazily per model and share one worker pool.
type Provider struct {
	config    *ai.Config
	pool      *ants.Pool
	mu        sync.Mutex
	embedders map[string]*Embedder
	closed    bool
	logger    *slog.Logger
}

// NewProvider creates a new embedding provider backed by an OpenAI-compatible
// service. The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(config.Concurrency)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		pool:      pool,
		embedders: make(map[string]*Embedder),
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the embedder for a registry model name.
func (p *Provider) Embedder(model string) (ai.Embedder, error) {
	m, err := ai.ResolveModel(model)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ai.ErrProviderClosed
	}
	if e, ok := p.embedders[m.Name]; ok {
		return e, nil
	}

	e, err := newEmbedder(p.config, m, p.pool)
	if err != nil {
		return nil, err
	}
	p.embedders[m.Name] = e
	p.logger.Debug("created embedder", "model", m.Name, "id", m.ID)
	return e, nil
}

// Close releases the worker pool. Embedders handed out earlier must not be
// used afterwards.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.logger.Debug("closing OpenAI provider")
	p.closed = true
	p.pool.Release()
	return nil
}
