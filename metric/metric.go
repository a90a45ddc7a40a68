// Package metric scores embedding vectors against a query vector.
//
// Every metric is oriented so that a higher score means "more similar":
// distances and divergences are negated. Unknown metric names resolve to
// Cosine without error.
package metric

import (
	"math"
	"strings"
)

const (
	// Epsilon guards divisions against zero norms and empty unions.
	Epsilon = 1e-12

	// Floor is the lower clip applied to both vectors before the KL divergence.
	Floor = 1e-9
)

// Metric is a pairwise scoring function over two equal-length vectors.
type Metric int

const (
	Cosine Metric = iota
	Hamming
	KL
	Minkowski
	Jaccard
)

var names = [...]string{
	Cosine:    "cosine",
	Hamming:   "hamming",
	KL:        "kl",
	Minkowski: "minkowski",
	Jaccard:   "jaccard",
}

// All lists every supported metric in declaration order.
func All() []Metric {
	return []Metric{Cosine, Hamming, KL, Minkowski, Jaccard}
}

// Names lists the names accepted by Parse.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names[:])
	return out
}

// String returns the metric's name.
func (m Metric) String() string {
	if m < 0 || int(m) >= len(names) {
		return names[Cosine]
	}
	return names[m]
}

// Parse maps a metric name to a Metric. Matching ignores case and surrounding
// whitespace; anything unrecognised falls back to Cosine.
func Parse(name string) Metric {
	m, _ := Lookup(name)
	return m
}

// Lookup is Parse but also reports whether name was recognised.
func Lookup(name string) (Metric, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == key {
			return Metric(i), true
		}
	}
	return Cosine, false
}

// Score compares candidate a with query b. Vectors of different length are
// compared over the shorter prefix; an empty comparison scores 0.
func (m Metric) Score(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	a, b = a[:n], b[:n]

	switch m {
	case Hamming:
		return hamming(a, b)
	case KL:
		return negKL(a, b)
	case Minkowski:
		return negEuclidean(a, b)
	case Jaccard:
		return jaccard(a, b)
	default:
		return cosine(a, b)
	}
}

// ScoreAll scores every candidate against query. The result is aligned with
// candidates.
func (m Metric) ScoreAll(candidates [][]float32, query []float32) []float64 {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = m.Score(c, query)
	}
	return scores
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + Epsilon)
}

// hamming is one minus the rate of elementwise inequality. On continuous
// embeddings exact equality is rare, so this sits near 0 for unrelated vectors
// and reaches 1 only for identical ones.
func hamming(a, b []float32) float64 {
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return 1 - float64(diff)/float64(len(a))
}

func negKL(a, b []float32) float64 {
	var sum float64
	for i := range a {
		fa := math.Max(float64(a[i]), Floor)
		fb := math.Max(float64(b[i]), Floor)
		sum += fa * math.Log(fa/fb)
	}
	return -sum
}

func negEuclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return -math.Sqrt(sum)
}

func jaccard(a, b []float32) float64 {
	var inter, union int
	for i := range a {
		pa, pb := a[i] > 0, b[i] > 0
		if pa && pb {
			inter++
		}
		if pa || pb {
			union++
		}
	}
	return float64(inter) / (float64(union) + Epsilon)
}
