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


package mock

import (
	"sync"

	"github.com/poiesic/fingerprint/ai"
)

// MockProvider is a test double for ai.Provider.
// It hands out one MockEmbedder per registry model, seeded by model name.
type MockProvider struct {
	mu        sync.Mutex
	embedders map[string]*MockEmbedder
	closed    bool
}

// NewMockProvider creates a new mock provider with default mock embedders.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockEmbedder() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return newMockProvider()
}

// NewMockProviderWithEmbedder creates a mock provider that returns the given
// embedder for every model.
func NewMockProviderWithEmbedder(embedder *MockEmbedder) ai.Provider {
	p := newMockProvider()
	for _, m := range ai.Models {
		p.embedders[m.Name] = embedder
	}
	return p
}

func newMockProvider() *MockProvider {
	return &MockProvider{embedders: make(map[string]*MockEmbedder)}
}

// Embedder returns the mock embedder for a registry model name.
func (p *MockProvider) Embedder(model string) (ai.Embedder, error) {
	return p.GetMockEmbedder(model)
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder(model string) (*MockEmbedder, error) {
	m, err := ai.ResolveModel(model)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ai.ErrProviderClosed
	}
	e, ok := p.embedders[m.Name]
	if !ok {
		e = &MockEmbedder{Seed: m.Name + ":"}
		p.embedders[m.Name] = e
	}
	return e, nil
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
