// Package recommend answers "who works on X?" over a built profile.
//
// A query runs in two steps. The topic text is first resolved to one of the
// profile's topics; if that fails the query ends with *core.NoMatchError
// carrying suggestions and nothing is scored. Otherwise every researcher's
// profile vector is scored against the matched topic's vector with the
// requested metric and the best TopK are returned.
package recommend

import (
	"context"
	"log/slog"

	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/match"
	"github.com/poiesic/fingerprint/metric"
	"github.com/poiesic/fingerprint/profile"
	"github.com/poiesic/fingerprint/rank"
)

// DefaultTopicPreview is the number of top topics attached to each result.
const DefaultTopicPreview = 5

// Option configures a recommendation.
type Option func(*settings)

// WithMonitor sets a monitor that observes each step.
func WithMonitor(m Monitor) Option {
	return func(s *settings) {
		if m != nil {
			s.monitor = m
		}
	}
}

// WithTopicPreview sets how many top topics each result carries.
// Default is DefaultTopicPreview.
func WithTopicPreview(n int) Option {
	return func(s *settings) {
		s.topicPreview = n
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

type settings struct {
	monitor      Monitor
	topicPreview int
	logger       *slog.Logger
}

// Recommend ranks the researchers of p against q.Topic.
func Recommend(ctx context.Context, p *profile.Profile, q core.Query, opts ...Option) (*core.Response, error) {
	s := &settings{
		monitor:      &noopMonitor{},
		topicPreview: DefaultTopicPreview,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	logger := s.logger.With("component", "recommend")

	if p == nil {
		return nil, ErrProfileRequired
	}
	if q.TopK < 1 {
		return nil, ErrInvalidTopK
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.monitor.Start(q)

	result := p.Matcher().Resolve(q.Topic)
	s.monitor.AfterResolve(result)
	if result.Kind != match.Matched {
		suggestions := result.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		logger.Debug("topic not resolved", "query", q.Topic, "suggestions", len(suggestions))
		return nil, &core.NoMatchError{Query: q.Topic, Suggestions: suggestions}
	}

	m := metric.Parse(q.Metric)
	scores := m.ScoreAll(p.ProfileVectors(), p.TopicVector(result.Index))
	s.monitor.AfterScore(m, scores)

	entries := rank.TopK(scores, q.TopK)
	results := make([]core.Recommendation, len(entries))
	for k, e := range entries {
		rec := core.Recommendation{
			Researcher: p.Researchers()[e.Index],
			Score:      e.Score,
			TopTopics:  p.TopTopics(e.Index, s.topicPreview),
		}
		if field, ok := p.DominantField(e.Index); ok {
			rec.Field = &field
		}
		results[k] = rec
	}

	resp := &core.Response{
		QueryTopic:      q.Topic,
		MatchedTopic:    result.Topic,
		MatchStage:      string(result.Stage),
		Metric:          m.String(),
		Model:           p.Model(),
		TotalCandidates: p.Len(),
		Results:         results,
	}
	s.monitor.Finish(resp)

	logger.Debug("recommended",
		"query", q.Topic,
		"matched", result.Topic,
		"stage", result.Stage,
		"metric", m.String(),
		"results", len(results))
	return resp, nil
}

// Suggest returns up to k of p's topics resembling text.
func Suggest(p *profile.Profile, text string, k int) []string {
	if p == nil {
		return []string{}
	}
	out := p.Matcher().Suggest(text, k)
	if out == nil {
		return []string{}
	}
	return out
}
