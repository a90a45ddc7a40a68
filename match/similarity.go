package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/xrash/smetrics"
)

// Similarity scores two strings in [0, 1], 1 meaning identical.
type Similarity func(a, b string) float64

// Ratio is the normalized edit-based ratio 2*M/T, where M is the number of
// characters in matching blocks and T the combined length of both strings.
func Ratio(a, b string) float64 {
	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

// JaroWinkler is the Jaro-Winkler similarity with the customary 0.7 boost
// threshold and 4-character prefix.
func JaroWinkler(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

// SimilarityByName returns the named similarity function. Known names are
// "ratio" and "jaro-winkler"; anything else yields Ratio and false.
func SimilarityByName(name string) (Similarity, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ratio":
		return Ratio, true
	case "jaro-winkler", "jarowinkler":
		return JaroWinkler, true
	default:
		return Ratio, false
	}
}

// runes splits s into one sequence element per character.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
