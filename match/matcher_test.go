package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{"topic1", "topic2", "Machine Learning", "Quantum Computing", "Deep Machine Learning"}

func TestResolve_Exact(t *testing.T) {
	calls := 0
	counting := func(a, b string) float64 {
		calls++
		return Ratio(a, b)
	}
	m := NewMatcher(corpus, WithSimilarity(counting))

	for _, q := range []string{"machine learning", "MACHINE LEARNING", "  Machine Learning "} {
		res := m.Resolve(q)
		require.Equal(t, Matched, res.Kind, q)
		assert.Equal(t, "Machine Learning", res.Topic)
		assert.Equal(t, 2, res.Index)
		assert.Equal(t, StageExact, res.Stage)
		assert.Equal(t, 1.0, res.Score)
	}
	assert.Zero(t, calls, "exact matches must not invoke approximate matching")
}

func TestResolve_Substring(t *testing.T) {
	m := NewMatcher(corpus)

	t.Run("first hit in topic order wins", func(t *testing.T) {
		res := m.Resolve("learning")
		require.Equal(t, Matched, res.Kind)
		assert.Equal(t, "Machine Learning", res.Topic)
		assert.Equal(t, StageSubstring, res.Stage)
	})

	t.Run("prefix of several topics", func(t *testing.T) {
		res := m.Resolve("topic")
		require.Equal(t, Matched, res.Kind)
		assert.Equal(t, "topic1", res.Topic)
	})
}

func TestResolve_Approximate(t *testing.T) {
	m := NewMatcher(corpus)

	res := m.Resolve("machine lerning")
	require.Equal(t, Matched, res.Kind)
	assert.Equal(t, "Machine Learning", res.Topic)
	assert.Equal(t, StageApproximate, res.Stage)
	assert.InDelta(t, 0.9677, res.Score, 1e-3)
}

func TestResolve_NoMatch(t *testing.T) {
	m := NewMatcher([]string{"topic1", "topic2", "machine learning", "quantum computing"})

	res := m.Resolve("totally-unknown-subject-zzz")
	assert.Equal(t, Suggested, res.Kind)
	assert.Equal(t, -1, res.Index)
	assert.Empty(t, res.Topic)
	require.NotEmpty(t, res.Suggestions)
	assert.LessOrEqual(t, len(res.Suggestions), DefaultSuggestions)
	assert.Equal(t, []string{"topic2", "topic1", "quantum computing", "machine learning"}, res.Suggestions)
}

func TestResolve_Cutoff(t *testing.T) {
	t.Run("permissive cutoff accepts weak matches", func(t *testing.T) {
		m := NewMatcher([]string{"topic1"}, WithCutoff(0))
		res := m.Resolve("zzz-unrelated")
		require.Equal(t, Matched, res.Kind)
		assert.Equal(t, "topic1", res.Topic)
		assert.Equal(t, StageApproximate, res.Stage)
	})

	t.Run("strict cutoff rejects near misses", func(t *testing.T) {
		m := NewMatcher(corpus, WithCutoff(0.99))
		res := m.Resolve("machine lerning")
		assert.Equal(t, Suggested, res.Kind)
	})
}

func TestResolve_Degenerate(t *testing.T) {
	t.Run("empty corpus fails without suggestions", func(t *testing.T) {
		res := NewMatcher(nil).Resolve("anything")
		assert.Equal(t, Failed, res.Kind)
		assert.Empty(t, res.Suggestions)
	})

	t.Run("blank query fails", func(t *testing.T) {
		res := NewMatcher(corpus).Resolve("   ")
		assert.Equal(t, Failed, res.Kind)
	})
}

func TestSuggest(t *testing.T) {
	m := NewMatcher(corpus)

	t.Run("substring hits bounded by k", func(t *testing.T) {
		assert.Equal(t, []string{"Machine Learning"}, m.Suggest("learn", 1))
		assert.Equal(t, []string{"Machine Learning", "Deep Machine Learning"}, m.Suggest("learn", 5))
	})

	t.Run("falls back to closest matches", func(t *testing.T) {
		got := NewMatcher([]string{"abc ghr graph theory", "graph", "grape", "graph neural"}).Suggest("grqph", 5)
		assert.Equal(t, []string{"graph", "grape", "graph neural", "abc ghr graph theory"}, got)

		got = NewMatcher([]string{"ab", "cd", "ef"}).Suggest("xyz", 5)
		assert.Equal(t, []string{"ef", "cd", "ab"}, got)
	})

	t.Run("non positive k", func(t *testing.T) {
		assert.Empty(t, m.Suggest("topic", 0))
	})

	t.Run("returns canonical casing", func(t *testing.T) {
		assert.Equal(t, []string{"Quantum Computing"}, m.Suggest("QUANTUM", 3))
	})
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("graph", "graph"))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.InDelta(t, 0.1818, Ratio("topic1", "totally-unknown-subject-zzz"), 1e-3)

	assert.InDelta(t, 1.0, JaroWinkler("graph", "graph"), 1e-9)
	assert.Greater(t, JaroWinkler("machine learning", "machine lerning"), JaroWinkler("machine learning", "quantum"))

	fn, ok := SimilarityByName("jaro-winkler")
	assert.True(t, ok)
	assert.InDelta(t, JaroWinkler("ab", "ac"), fn("ab", "ac"), 1e-12)

	fn, ok = SimilarityByName("nope")
	assert.False(t, ok)
	assert.Equal(t, Ratio("ab", "ac"), fn("ab", "ac"))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "matched", Matched.String())
	assert.Equal(t, "suggested", Suggested.String())
	assert.Equal(t, "failed", Failed.String())
}
