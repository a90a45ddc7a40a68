package cache

import (
	"sync"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/storage"
)

// Option configures a caching Provider.
type Option func(*Provider)

// WithLRUSize enables the in-memory cache with the given size.
// A size of 0 disables it.
func WithLRUSize(size int) Option {
	return func(p *Provider) {
		p.lruSize = size
	}
}

// WithStore enables the persistent cache backed by store.
// The Provider does not close the store.
func WithStore(store storage.VectorCache) Option {
	return func(p *Provider) {
		p.store = store
	}
}

// Provider wraps every embedder of an inner provider with the configured caches.
// The in-memory cache sits in front of the persistent one.
type Provider struct {
	inner   ai.Provider
	lruSize int
	store   storage.VectorCache

	mu        sync.Mutex
	embedders map[string]ai.Embedder
}

// NewProvider creates a caching provider around inner.
//
// Returns ai.Provider interface to enforce abstraction.
func NewProvider(inner ai.Provider, opts ...Option) ai.Provider {
	p := &Provider{
		inner:     inner,
		lruSize:   DefaultLRUSize,
		embedders: make(map[string]ai.Embedder),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Embedder returns the cached embedder for a registry model name.
func (p *Provider) Embedder(model string) (ai.Embedder, error) {
	m, err := ai.ResolveModel(model)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.embedders[m.Name]; ok {
		return e, nil
	}

	e, err := p.inner.Embedder(m.Name)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		e = NewPersistent(e, m.Name, p.store)
	}
	if p.lruSize > 0 {
		e, err = NewLRU(e, m.Name, p.lruSize)
		if err != nil {
			return nil, err
		}
	}
	p.embedders[m.Name] = e
	return e, nil
}

// Close closes the inner provider.
func (p *Provider) Close() error {
	return p.inner.Close()
}
