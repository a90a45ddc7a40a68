package profile

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/poiesic/fingerprint/match"
)

// Profile is the immutable result of Build.
type Profile struct {
	model          string
	researchers    []string
	topics         []string
	topicIndex     map[string]int
	weights        [][]float64
	fields         []string
	texts          []string
	profileVectors [][]float32
	topicVectors   [][]float32
	matcher        *match.Matcher
	builtAt        time.Time
}

// Model returns the embedding model name the profile was built with.
func (p *Profile) Model() string { return p.model }

// BuiltAt returns when the profile was built.
func (p *Profile) BuiltAt() time.Time { return p.builtAt }

// Researchers returns the researcher names in row order.
func (p *Profile) Researchers() []string { return p.researchers }

// Topics returns the topic names in column order.
func (p *Profile) Topics() []string { return p.topics }

// Len returns the number of researchers.
func (p *Profile) Len() int { return len(p.researchers) }

// Weight returns the expertise weight of researcher i in topic j.
func (p *Profile) Weight(i, j int) float64 { return p.weights[i][j] }

// Row returns the weights of researcher i in column order.
func (p *Profile) Row(i int) []float64 { return p.weights[i] }

// DominantField returns researcher i's most frequent field of research.
// ok is false when the researcher has no field.
func (p *Profile) DominantField(i int) (field string, ok bool) {
	return p.fields[i], p.fields[i] != ""
}

// ProfileText returns the text embedded for researcher i.
func (p *Profile) ProfileText(i int) string { return p.texts[i] }

// ProfileVector returns the embedding of researcher i's profile text.
func (p *Profile) ProfileVector(i int) []float32 { return p.profileVectors[i] }

// ProfileVectors returns every profile embedding in row order.
func (p *Profile) ProfileVectors() [][]float32 { return p.profileVectors }

// TopicVector returns the embedding of topic j.
func (p *Profile) TopicVector(j int) []float32 { return p.topicVectors[j] }

// TopicIndex returns the column of an exact topic name.
func (p *Profile) TopicIndex(name string) (int, bool) {
	j, ok := p.topicIndex[name]
	return j, ok
}

// Matcher returns the topic matcher over the profile's topics.
func (p *Profile) Matcher() *match.Matcher { return p.matcher }

// TopTopics returns up to n of researcher i's topics with positive weight,
// heaviest first and in column order on ties, formatted as "topic (0.80)".
func (p *Profile) TopTopics(i, n int) []string {
	if n <= 0 {
		return []string{}
	}
	row := p.weights[i]
	cols := make([]int, 0, len(row))
	for j, w := range row {
		if w > 0 {
			cols = append(cols, j)
		}
	}
	slices.SortStableFunc(cols, func(a, b int) int {
		return cmp.Compare(row[b], row[a])
	})
	if len(cols) > n {
		cols = cols[:n]
	}
	out := make([]string, len(cols))
	for k, j := range cols {
		out[k] = fmt.Sprintf("%s (%.2f)", p.topics[j], row[j])
	}
	return out
}
