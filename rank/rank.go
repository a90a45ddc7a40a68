// Package rank orders scored candidates.
package rank

import (
	"cmp"
	"slices"
)

// Entry is a candidate index with its score.
type Entry struct {
	Index int
	Score float64
}

// TopK returns the k highest-scoring entries, highest first. Equal scores keep
// ascending index order. k is clamped to [0, len(scores)].
func TopK(scores []float64, k int) []Entry {
	k = max(0, min(k, len(scores)))
	entries := make([]Entry, len(scores))
	for i, s := range scores {
		entries[i] = Entry{Index: i, Score: s}
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return entries[:k]
}
