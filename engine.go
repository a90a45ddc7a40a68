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


package fingerprint

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/match"
	"github.com/poiesic/fingerprint/profile"
	"github.com/poiesic/fingerprint/recommend"
	"github.com/poiesic/fingerprint/table"
)

// TableSource produces the expertise table the engine builds profiles from.
type TableSource func(ctx context.Context) (*core.Table, error)

// FileSource returns a TableSource reading the CSV or TSV file at path.
func FileSource(path string) TableSource {
	return func(ctx context.Context) (*core.Table, error) {
		return table.LoadFile(path)
	}
}

// Engine owns an embedding provider and the active profile of each model.
// Queries read immutable profiles and need no locking; loads are serialized
// and replace a model's profile atomically.
type Engine struct {
	provider     ai.Provider
	source       TableSource
	defaultModel string
	topicPreview int
	matcherOpts  []match.Option
	retries      int
	retryDelay   time.Duration

	loadMu   sync.Mutex
	profiles map[string]*atomic.Pointer[profile.Profile]
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithTableSource sets where Recommend loads a table from when a model has no
// profile yet.
func WithTableSource(source TableSource) EngineOption {
	return func(e *Engine) error {
		e.source = source
		return nil
	}
}

// WithDefaultModel sets the model used when a call names none.
// Default is ai.DefaultModel.
func WithDefaultModel(model string) EngineOption {
	return func(e *Engine) error {
		m, err := ai.ResolveModel(model)
		if err != nil {
			return err
		}
		e.defaultModel = m.Name
		return nil
	}
}

// WithTopicPreview sets how many top topics each recommendation carries.
// Default is recommend.DefaultTopicPreview.
func WithTopicPreview(n int) EngineOption {
	return func(e *Engine) error {
		if n < 0 {
			return fmt.Errorf("topic preview must not be negative, got %d", n)
		}
		e.topicPreview = n
		return nil
	}
}

// WithMatcherOptions passes options to the topic matcher of every profile.
func WithMatcherOptions(opts ...match.Option) EngineOption {
	return func(e *Engine) error {
		e.matcherOpts = append(e.matcherOpts, opts...)
		return nil
	}
}

// WithRetry retries failed embedding calls during loads.
// Default is a single attempt.
func WithRetry(attempts int, baseDelay time.Duration) EngineOption {
	return func(e *Engine) error {
		if attempts < 1 {
			return ai.ErrInvalidMaxAttempts
		}
		e.retries = attempts
		e.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates an engine around provider. The engine closes the
// provider on Close.
func NewEngine(provider ai.Provider, opts ...EngineOption) (*Engine, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	e := &Engine{
		provider:     provider,
		defaultModel: ai.DefaultModel,
		topicPreview: recommend.DefaultTopicPreview,
		retries:      1,
		profiles:     make(map[string]*atomic.Pointer[profile.Profile], len(ai.Models)),
		logger:       slog.Default(),
	}
	for _, m := range ai.Models {
		e.profiles[m.Name] = &atomic.Pointer[profile.Profile]{}
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "engine")
	return e, nil
}

// Close closes the provider.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing embedding provider", "err", err)
		return err
	}
	return nil
}

// resolve maps a possibly empty model name to its registry name.
func (e *Engine) resolve(model string) (string, error) {
	if model == "" {
		return e.defaultModel, nil
	}
	m, err := ai.ResolveModel(model)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}

// Load builds a profile of t with model and makes it the model's active
// profile. The previous profile is left untouched for readers still using it.
func (e *Engine) Load(ctx context.Context, t *core.Table, model string) (*profile.Profile, error) {
	name, err := e.resolve(model)
	if err != nil {
		return nil, err
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	return e.load(ctx, t, name)
}

// Reload reads the table source again and rebuilds model's profile.
func (e *Engine) Reload(ctx context.Context, model string) (*profile.Profile, error) {
	name, err := e.resolve(model)
	if err != nil {
		return nil, err
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	return e.loadFromSource(ctx, name)
}

// load must be called with loadMu held.
func (e *Engine) load(ctx context.Context, t *core.Table, name string) (*profile.Profile, error) {
	embedder, err := e.provider.Embedder(name)
	if err != nil {
		return nil, err
	}
	embedder = ai.WithRetry(embedder, e.retries, e.retryDelay)

	p, err := profile.Build(ctx, t, embedder,
		profile.WithModel(name),
		profile.WithLogger(e.logger),
		profile.WithMatcherOptions(e.matcherOpts...),
	)
	if err != nil {
		e.logger.Error("failed to build profile", "model", name, "err", err)
		return nil, err
	}

	e.profiles[name].Store(p)
	return p, nil
}

// loadFromSource must be called with loadMu held.
func (e *Engine) loadFromSource(ctx context.Context, name string) (*profile.Profile, error) {
	if e.source == nil {
		return nil, ErrNoTableSource
	}
	t, err := e.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTableLoad, err)
	}
	return e.load(ctx, t, name)
}

// Profile returns the active profile of model, if one has been loaded.
func (e *Engine) Profile(model string) (*profile.Profile, bool) {
	name, err := e.resolve(model)
	if err != nil {
		return nil, false
	}
	p := e.profiles[name].Load()
	return p, p != nil
}

// ensure returns the active profile of model, loading it from the table
// source on first use.
func (e *Engine) ensure(ctx context.Context, model string) (*profile.Profile, error) {
	name, err := e.resolve(model)
	if err != nil {
		return nil, err
	}
	if p := e.profiles[name].Load(); p != nil {
		return p, nil
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if p := e.profiles[name].Load(); p != nil {
		return p, nil
	}
	e.logger.Info("loading profile on first use", "model", name)
	return e.loadFromSource(ctx, name)
}

// Recommend answers q against model's profile, loading it if needed.
func (e *Engine) Recommend(ctx context.Context, model string, q core.Query, opts ...recommend.Option) (*core.Response, error) {
	p, err := e.ensure(ctx, model)
	if err != nil {
		return nil, err
	}
	opts = append([]recommend.Option{
		recommend.WithTopicPreview(e.topicPreview),
		recommend.WithLogger(e.logger),
	}, opts...)
	return recommend.Recommend(ctx, p, q, opts...)
}

// Suggest returns up to k topics of model's profile resembling text.
func (e *Engine) Suggest(ctx context.Context, model, text string, k int) ([]string, error) {
	p, err := e.ensure(ctx, model)
	if err != nil {
		return nil, err
	}
	return recommend.Suggest(p, text, k), nil
}

// Topics returns up to limit topics of model's profile in sorted order.
// A limit <= 0 returns every topic.
func (e *Engine) Topics(ctx context.Context, model string, limit int) ([]string, error) {
	p, err := e.ensure(ctx, model)
	if err != nil {
		return nil, err
	}
	topics := p.Topics()
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	return slices.Clone(topics), nil
}
