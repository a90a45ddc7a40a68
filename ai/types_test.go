package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModel(t *testing.T) {
	t.Run("known names", func(t *testing.T) {
		for _, m := range Models {
			got, err := ResolveModel(m.Name)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		}
	})

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		got, err := ResolveModel("  BERT ")
		require.NoError(t, err)
		assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", got.ID)
	})

	t.Run("empty name resolves to default", func(t *testing.T) {
		got, err := ResolveModel("")
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, got.Name)
		assert.Equal(t, "sentence-transformers/all-mpnet-base-v2", got.ID)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := ResolveModel("gpt")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownModel)
		assert.Contains(t, err.Error(), "mpnet")
	})
}

func TestModelNames(t *testing.T) {
	assert.Equal(t, []string{"bert", "xlnet", "albert", "distilbert", "mpnet"}, ModelNames())
}
