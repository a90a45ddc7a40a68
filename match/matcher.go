// Package match resolves free-text queries to canonical topic names.
//
// Resolution runs an ordered chain of resolvers; the first one to produce a
// topic wins:
//
//  1. exact: case-insensitive equality
//  2. substring: the lowercased query is contained in a lowercased topic,
//     first hit in topic order
//  3. approximate: the most similar topic, accepted only at or above the
//     acceptance cutoff
//
// When nothing resolves, the result carries up to DefaultSuggestions
// suggestions computed with a permissive cutoff.
package match

import (
	"cmp"
	"slices"
	"strings"
)

const (
	// DefaultCutoff is the minimum similarity for an approximate match to be
	// accepted as a resolution.
	DefaultCutoff = 0.6

	// DefaultSuggestions caps the suggestions attached to a failed resolution.
	DefaultSuggestions = 5
)

// Kind tags the outcome of a resolution.
type Kind int

const (
	// Failed means nothing resolved and there is nothing to suggest.
	Failed Kind = iota
	// Matched means the query resolved to a canonical topic.
	Matched
	// Suggested means nothing resolved but suggestions are available.
	Suggested
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Suggested:
		return "suggested"
	default:
		return "failed"
	}
}

// Stage names the resolver that produced a match.
type Stage string

const (
	StageExact       Stage = "exact"
	StageSubstring   Stage = "substring"
	StageApproximate Stage = "approximate"
)

// Result is the tagged outcome of Matcher.Resolve.
type Result struct {
	Kind        Kind
	Query       string
	Topic       string // canonical topic, set when Kind == Matched
	Index       int    // topic index, -1 unless Kind == Matched
	Stage       Stage  // set when Kind == Matched
	Score       float64
	Suggestions []string // set when Kind == Suggested
}

// resolver is one link of the resolution chain.
type resolver interface {
	stage() Stage
	resolve(query string) (index int, score float64, ok bool)
}

// Matcher resolves queries against a fixed topic list. It is safe for
// concurrent use.
type Matcher struct {
	topics     []string
	lowered    []string
	similarity Similarity
	cutoff     float64
	chain      []resolver
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithSimilarity sets the string similarity used by approximate matching and
// suggestions. Default is Ratio.
func WithSimilarity(fn Similarity) Option {
	return func(m *Matcher) {
		if fn != nil {
			m.similarity = fn
		}
	}
}

// WithCutoff sets the acceptance cutoff for approximate resolution.
// Default is DefaultCutoff.
func WithCutoff(cutoff float64) Option {
	return func(m *Matcher) {
		m.cutoff = cutoff
	}
}

// NewMatcher builds a matcher over topics. The slice is copied.
func NewMatcher(topics []string, opts ...Option) *Matcher {
	m := &Matcher{
		topics:     slices.Clone(topics),
		lowered:    make([]string, len(topics)),
		similarity: Ratio,
		cutoff:     DefaultCutoff,
	}
	for i, t := range topics {
		m.lowered[i] = strings.ToLower(t)
	}
	for _, opt := range opts {
		opt(m)
	}
	m.chain = []resolver{
		exactResolver{m},
		substringResolver{m},
		approximateResolver{m},
	}
	return m
}

// Topics returns a copy of the canonical topic list.
func (m *Matcher) Topics() []string {
	return slices.Clone(m.topics)
}

// Resolve runs the resolution chain for query.
func (m *Matcher) Resolve(query string) Result {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{Kind: Failed, Query: query, Index: -1}
	}
	lq := strings.ToLower(q)
	for _, r := range m.chain {
		if idx, score, ok := r.resolve(lq); ok {
			return Result{
				Kind:  Matched,
				Query: query,
				Topic: m.topics[idx],
				Index: idx,
				Stage: r.stage(),
				Score: score,
			}
		}
	}

	suggestions := m.Suggest(query, DefaultSuggestions)
	if len(suggestions) == 0 {
		return Result{Kind: Failed, Query: query, Index: -1}
	}
	return Result{Kind: Suggested, Query: query, Index: -1, Suggestions: suggestions}
}

// Suggest returns up to k topics for query: substring hits in topic order when
// there are any, otherwise the k most similar topics with no cutoff.
func (m *Matcher) Suggest(query string, k int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || k <= 0 {
		return nil
	}

	var hits []string
	for i, t := range m.lowered {
		if strings.Contains(t, q) {
			hits = append(hits, m.topics[i])
			if len(hits) == k {
				return hits
			}
		}
	}
	if len(hits) > 0 {
		return hits
	}

	scored := m.closeMatches(q, k, 0)
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = m.topics[s.index]
	}
	return out
}

type scoredTopic struct {
	index int
	score float64
}

// closeMatches returns up to n topics scoring at least cutoff against the
// lowercased query, best first. Equal scores order by descending topic name.
func (m *Matcher) closeMatches(lq string, n int, cutoff float64) []scoredTopic {
	var scored []scoredTopic
	for i, t := range m.lowered {
		if s := m.similarity(t, lq); s >= cutoff {
			scored = append(scored, scoredTopic{index: i, score: s})
		}
	}
	slices.SortStableFunc(scored, func(a, b scoredTopic) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(m.topics[b.index], m.topics[a.index])
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

type exactResolver struct{ m *Matcher }

func (exactResolver) stage() Stage { return StageExact }

func (r exactResolver) resolve(lq string) (int, float64, bool) {
	for i, t := range r.m.lowered {
		if t == lq {
			return i, 1, true
		}
	}
	return -1, 0, false
}

type substringResolver struct{ m *Matcher }

func (substringResolver) stage() Stage { return StageSubstring }

func (r substringResolver) resolve(lq string) (int, float64, bool) {
	for i, t := range r.m.lowered {
		if strings.Contains(t, lq) {
			return i, r.m.similarity(t, lq), true
		}
	}
	return -1, 0, false
}

type approximateResolver struct{ m *Matcher }

func (approximateResolver) stage() Stage { return StageApproximate }

func (r approximateResolver) resolve(lq string) (int, float64, bool) {
	best := r.m.closeMatches(lq, 1, r.m.cutoff)
	if len(best) == 0 {
		return -1, 0, false
	}
	return best[0].index, best[0].score, true
}
