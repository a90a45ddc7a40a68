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


package warm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/profile"
	"github.com/poiesic/fingerprint/storage"
)

// Config holds configuration for a warm-up.
type Config struct {
	// BatchSize is the number of texts looked up and embedded per batch
	BatchSize int

	// ReportInterval is how often to report progress (number of texts)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for failed embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      64,
		ReportInterval: 64,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Stats summarizes the warm-up of one model.
type Stats struct {
	Model    string
	Texts    int
	Embedded int
	Cached   int
	Elapsed  time.Duration
}

// Warmer fills a vector cache with the embeddings of a table's profiles.
type Warmer struct {
	provider ai.Provider
	store    storage.VectorCache
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewWarmer creates a new warmer. provider should not itself be backed by
// store, or every text will look cached.
// progress: where to write progress output (typically os.Stderr)
func NewWarmer(provider ai.Provider, store storage.VectorCache, config *Config, progress io.Writer) *Warmer {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Warmer{
		provider: provider,
		store:    store,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "warmer"),
	}
}

// Run warms the cache for each model in turn and stops at the first failure.
func (w *Warmer) Run(ctx context.Context, table *core.Table, models ...string) ([]Stats, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	if w.config.BatchSize < 1 {
		return nil, ErrInvalidBatchSize
	}

	texts, err := profile.Texts(table)
	if err != nil {
		return nil, err
	}
	texts = dedupe(texts)

	stats := make([]Stats, 0, len(models))
	for _, name := range models {
		model, err := ai.ResolveModel(name)
		if err != nil {
			return stats, err
		}
		s, err := w.warmModel(ctx, model.Name, texts)
		if err != nil {
			return stats, fmt.Errorf("warm %s: %w", model.Name, err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func (w *Warmer) warmModel(ctx context.Context, model string, texts []string) (Stats, error) {
	embedder, err := w.provider.Embedder(model)
	if err != nil {
		return Stats{}, err
	}
	processor := NewBatchProcessor(w.store, embedder, model, w.config.MaxRetries, w.config.RetryDelay)

	fmt.Fprintf(w.progress, "Warming %d texts for %s (batch size: %d)\n",
		len(texts), model, w.config.BatchSize)
	tracker := NewProgressTracker(w.progress, model, len(texts), w.config.ReportInterval)
	tracker.Start()

	stats := Stats{Model: model, Texts: len(texts)}
	for start := 0; start < len(texts); start += w.config.BatchSize {
		end := min(start+w.config.BatchSize, len(texts))
		embedded, err := processor.Process(ctx, texts[start:end])
		if err != nil {
			return stats, fmt.Errorf("failed to process batch: %w", err)
		}
		stats.Embedded += embedded
		tracker.Increment(end - start)
	}

	tracker.Finish()
	stats.Cached = stats.Texts - stats.Embedded
	stats.Elapsed = tracker.Elapsed()

	w.logger.Info("cache warmed",
		"model", model,
		"texts", stats.Texts,
		"embedded", stats.Embedded,
		"cached", stats.Cached,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// dedupe drops repeated texts, keeping first occurrences in order.
func dedupe(texts []string) []string {
	seen := make(map[string]bool, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
