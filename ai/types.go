package ai

import (
	"fmt"
	"strings"
)

// DefaultModel is the model used when a request names none.
const DefaultModel = "mpnet"

// Model is a named entry in the embedding model registry.
type Model struct {
	// Name is the short selector used by callers, e.g. "bert".
	Name string
	// ID is the upstream model identifier sent to the embedding service.
	ID string
	// Dimensions is the length of the vectors the model produces.
	Dimensions int
}

// Models is the fixed set of selectable embedding models.
var Models = []Model{
	{Name: "bert", ID: "sentence-transformers/all-MiniLM-L6-v2", Dimensions: 384},
	{Name: "xlnet", ID: "sentence-transformers/xlnet-base-cased", Dimensions: 768},
	{Name: "albert", ID: "sentence-transformers/paraphrase-albert-small-v2", Dimensions: 768},
	{Name: "distilbert", ID: "sentence-transformers/distilbert-base-nli-stsb-mean-tokens", Dimensions: 768},
	{Name: "mpnet", ID: "sentence-transformers/all-mpnet-base-v2", Dimensions: 768},
}

// ResolveModel looks up a model by name, ignoring case and surrounding space.
// An empty name resolves to DefaultModel.
func ResolveModel(name string) (Model, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultModel
	}
	for _, m := range Models {
		if m.Name == key {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q (choose from %s)", ErrUnknownModel, name, strings.Join(ModelNames(), ", "))
}

// ModelNames lists the registry's model names in order.
func ModelNames() []string {
	names := make([]string, len(Models))
	for i, m := range Models {
		names[i] = m.Name
	}
	return names
}
