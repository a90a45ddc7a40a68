package recommend

import (
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/match"
	"github.com/poiesic/fingerprint/metric"
)

// Monitor provides hooks to observe a recommendation.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(query core.Query)
	AfterResolve(result match.Result)
	AfterScore(m metric.Metric, scores []float64)
	Finish(response *core.Response)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query)                      {}
func (n *noopMonitor) AfterResolve(_ match.Result)             {}
func (n *noopMonitor) AfterScore(_ metric.Metric, _ []float64) {}
func (n *noopMonitor) Finish(_ *core.Response)                 {}

// TextMonitor writes a human-readable trace of each step to W.
type TextMonitor struct {
	W io.Writer
}

var _ Monitor = (*TextMonitor)(nil)

func (t *TextMonitor) Start(q core.Query) {
	fmt.Fprintf(t.W, "query: %q (topk=%d, metric=%s)\n", q.Topic, q.TopK, metric.Parse(q.Metric))
}

func (t *TextMonitor) AfterResolve(r match.Result) {
	switch r.Kind {
	case match.Matched:
		fmt.Fprintf(t.W, "resolved: %q via %s match (similarity %.3f)\n", r.Topic, r.Stage, r.Score)
	case match.Suggested:
		fmt.Fprintf(t.W, "unresolved, suggestions: %s\n", strings.Join(r.Suggestions, ", "))
	default:
		fmt.Fprintln(t.W, "unresolved, no suggestions")
	}
}

func (t *TextMonitor) AfterScore(m metric.Metric, scores []float64) {
	if len(scores) == 0 {
		fmt.Fprintf(t.W, "scored 0 candidates with %s\n", m)
		return
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo, hi = min(lo, s), max(hi, s)
	}
	fmt.Fprintf(t.W, "scored %d candidates with %s (min %.4f, max %.4f)\n", len(scores), m, lo, hi)
}

func (t *TextMonitor) Finish(r *core.Response) {
	fmt.Fprintf(t.W, "returning %d of %d candidates\n", len(r.Results), r.TotalCandidates)
}
