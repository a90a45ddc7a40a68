// Package static provides an offline embedder that hashes tokens and
// character trigrams into a fixed-size vector.
//
// It needs no network or model download and is fully deterministic, which
// makes it useful for demos, air-gapped installs, and tests. Semantic
// quality is limited to lexical overlap. Each registry model gets its own
// hash seed and dimension so model choice still changes the vector space.
package static

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/poiesic/fingerprint/ai"
)

// Weights for vector generation
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// stopWords are dropped before token hashing.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true,
	"in": true, "on": true, "for": true, "to": true, "with": true,
	"by": true, "or": true, "at": true, "from": true,
}

// Embedder implements ai.Embedder by feature hashing.
type Embedder struct {
	seed       string
	dimensions int
}

// NewEmbedder creates a static embedder for a registry model name.
func NewEmbedder(model string) (*Embedder, error) {
	m, err := ai.ResolveModel(model)
	if err != nil {
		return nil, err
	}
	return newEmbedder(m), nil
}

func newEmbedder(m ai.Model) *Embedder {
	return &Embedder{seed: m.ID + "\x00", dimensions: m.Dimensions}
}

// Dimensions returns the embedding dimension.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// EmbedText generates the embedding for a single text. Blank text yields a
// zero vector.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dimensions), nil
	}
	return normalizeVector(e.generateVector(trimmed)), nil
}

// EmbedTexts generates embeddings for multiple texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

func (e *Embedder) generateVector(text string) []float32 {
	vector := make([]float32, e.dimensions)

	for _, token := range tokenize(text) {
		if stopWords[token] {
			continue
		}
		vector[e.hashToIndex(token)] += tokenWeight
	}

	for _, ngram := range extractNgrams(normalizeForNgrams(text), ngramSize) {
		vector[e.hashToIndex(ngram)] += ngramWeight
	}

	return vector
}

// tokenize splits text on anything that is not a letter or digit and
// lowercases the pieces.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

func normalizeForNgrams(text string) []rune {
	var out []rune
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return out
}

// extractNgrams extracts n-rune sliding windows.
func extractNgrams(text []rune, n int) []string {
	if len(text) < n {
		return []string{}
	}
	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, string(text[i:i+n]))
	}
	return ngrams
}

// hashToIndex uses FNV-64 over the model seed and s to pick a dimension.
func (e *Embedder) hashToIndex(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(e.seed))
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(e.dimensions))
}

func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// Provider implements ai.Provider with static embedders.
type Provider struct {
	mu        sync.Mutex
	embedders map[string]*Embedder
	closed    bool
}

// NewProvider creates a provider of static embedders.
//
// Returns ai.Provider interface to enforce abstraction.
func NewProvider() ai.Provider {
	return &Provider{embedders: make(map[string]*Embedder)}
}

// Embedder returns the static embedder for a registry model name.
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
	e, ok := p.embedders[m.Name]
	if !ok {
		e = newEmbedder(m)
		p.embedders[m.Name] = e
	}
	return e, nil
}

// Close marks the provider closed.
func (p *Provider) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
