package profile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/match"
)

// Option configures Build.
type Option func(*builder)

// WithModel records the embedding model name on the profile.
func WithModel(model string) Option {
	return func(b *builder) {
		b.model = model
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// WithMatcherOptions passes options to the topic matcher built for the profile.
func WithMatcherOptions(opts ...match.Option) Option {
	return func(b *builder) {
		b.matcherOpts = append(b.matcherOpts, opts...)
	}
}

type builder struct {
	model       string
	logger      *slog.Logger
	matcherOpts []match.Option
}

type cell struct {
	sum   float64
	count int
}

// Build constructs a Profile from table using embedder for profile texts and
// topic names. The embedder is called at most twice: once with every profile
// text and once with every topic name.
//
// A table lacking required columns fails with *core.SchemaError before any
// other work. Embedder failures are returned as *core.ProviderError.
func Build(ctx context.Context, table *core.Table, embedder ai.Embedder, opts ...Option) (*Profile, error) {
	b := &builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	logger := b.logger.With("component", "profile-builder", "model", b.model)

	start := time.Now()
	p, err := aggregate(table)
	if err != nil {
		return nil, err
	}
	p.model = b.model

	if p.profileVectors, err = embedAll(ctx, embedder, b.model, p.texts); err != nil {
		logger.Error("failed to embed profile texts", "count", len(p.texts), "err", err)
		return nil, err
	}
	if p.topicVectors, err = embedAll(ctx, embedder, b.model, p.topics); err != nil {
		logger.Error("failed to embed topics", "count", len(p.topics), "err", err)
		return nil, err
	}

	p.matcher = match.NewMatcher(p.topics, b.matcherOpts...)
	p.builtAt = time.Now().UTC()

	logger.Info("built profile",
		"researchers", len(p.researchers),
		"topics", len(p.topics),
		"records", len(table.Records),
		"elapsed", time.Since(start))
	return p, nil
}

// Texts returns every text Build would embed for table: the profile texts
// in researcher order followed by the topic names in topic order.
func Texts(table *core.Table) ([]string, error) {
	p, err := aggregate(table)
	if err != nil {
		return nil, err
	}
	return append(slices.Clone(p.texts), p.topics...), nil
}

// aggregate validates table and fills in everything but the vectors,
// matcher and metadata.
func aggregate(table *core.Table) (*Profile, error) {
	if err := core.CheckSchema(table); err != nil {
		return nil, err
	}

	p := &Profile{}

	cells := make(map[[2]string]*cell)
	researcherSet := make(map[string]bool)
	topicSet := make(map[string]bool)
	fieldCounts := make(map[string]map[string]int)
	fieldOrder := make(map[string][]string)

	for i := range table.Records {
		rec := &table.Records[i]
		if err := core.ValidateRecord(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		researcherSet[rec.Researcher] = true
		topicSet[rec.Topic] = true

		key := [2]string{rec.Researcher, rec.Topic}
		c, ok := cells[key]
		if !ok {
			c = &cell{}
			cells[key] = c
		}
		c.sum += rec.Percentage / 100
		c.count++

		if rec.Field == "" {
			continue
		}
		counts, ok := fieldCounts[rec.Researcher]
		if !ok {
			counts = make(map[string]int)
			fieldCounts[rec.Researcher] = counts
		}
		if counts[rec.Field] == 0 {
			fieldOrder[rec.Researcher] = append(fieldOrder[rec.Researcher], rec.Field)
		}
		counts[rec.Field]++
	}

	p.researchers = sortedKeys(researcherSet)
	p.topics = sortedKeys(topicSet)
	p.topicIndex = make(map[string]int, len(p.topics))
	for j, t := range p.topics {
		p.topicIndex[t] = j
	}

	p.weights = make([][]float64, len(p.researchers))
	p.fields = make([]string, len(p.researchers))
	p.texts = make([]string, len(p.researchers))
	for i, r := range p.researchers {
		row := make([]float64, len(p.topics))
		for j, t := range p.topics {
			if c, ok := cells[[2]string{r, t}]; ok {
				row[j] = c.sum / float64(c.count)
			}
		}
		p.weights[i] = row
		p.fields[i] = dominantField(fieldCounts[r], fieldOrder[r])
		p.texts[i] = profileText(r, p.fields[i], p.topics, row)
	}
	return p, nil
}

// dominantField picks the most frequent field, earliest first seen on ties.
func dominantField(counts map[string]int, order []string) string {
	best, bestCount := "", 0
	for _, f := range order {
		if counts[f] > bestCount {
			best, bestCount = f, counts[f]
		}
	}
	return best
}

// profileText joins the name, the dominant field when present, and every
// topic with positive weight in column order.
func profileText(name, field string, topics []string, row []float64) string {
	parts := []string{name}
	if field != "" {
		parts = append(parts, field)
	}
	for j, w := range row {
		if w > 0 {
			parts = append(parts, topics[j])
		}
	}
	return strings.Join(parts, " ")
}

func embedAll(ctx context.Context, embedder ai.Embedder, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, &core.ProviderError{Model: model, Err: err}
	}
	if len(vectors) != len(texts) {
		return nil, &core.ProviderError{
			Model: model,
			Err:   fmt.Errorf("%w: expected %d, got %d", ai.ErrVectorCountMismatch, len(texts), len(vectors)),
		}
	}
	return vectors, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
