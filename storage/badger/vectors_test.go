package badger

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/fingerprint/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryVectorCache()
	require.NoError(t, err)
	defer cache.Close()

	texts := []string{"graph theory", "protein folding"}
	vectors := [][]float32{{0.1, 0.2}, {-1, 0, 1}}
	require.NoError(t, cache.PutVectors(ctx, "bert", texts, vectors))

	got, found, err := cache.GetVectors(ctx, "bert", []string{"protein folding", "unknown", "graph theory"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, found)
	assert.Equal(t, vectors[1], got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, vectors[0], got[2])
}

func TestVectorCache_ModelsAreSeparate(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryVectorCache()
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.PutVectors(ctx, "bert", []string{"x"}, [][]float32{{1}}))
	require.NoError(t, cache.PutVectors(ctx, "mpnet", []string{"x", "y"}, [][]float32{{2}, {3}}))

	_, found, err := cache.GetVectors(ctx, "albert", []string{"x"})
	require.NoError(t, err)
	assert.False(t, found[0])

	got, _, err := cache.GetVectors(ctx, "mpnet", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, got[0])

	n, err := cache.Count(ctx, "bert")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = cache.Count(ctx, "mpnet")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestVectorCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemoryVectorCache()
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.PutVectors(ctx, "bert", []string{"x"}, [][]float32{{1}}))
	require.NoError(t, cache.PutVectors(ctx, "bert", []string{"x"}, [][]float32{{9}}))

	got, _, err := cache.GetVectors(ctx, "bert", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []float32{9}, got[0])

	n, err := cache.Count(ctx, "bert")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVectorCache_CollisionIsMiss(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	cache, err := NewVectorCache(backend)
	require.NoError(t, err)

	// Store an entry under the key of "wanted" but with different text.
	err = backend.Batch(func(wb *badger.WriteBatch) error {
		value := storage.MarshalVectorEntry(&storage.VectorEntry{Text: "impostor", Vector: []float32{1}})
		return wb.Set(makeVectorKey("bert", "wanted"), value)
	})
	require.NoError(t, err)

	_, found, err := cache.GetVectors(ctx, "bert", []string{"wanted"})
	require.NoError(t, err)
	assert.False(t, found[0])
}

func TestVectorCache_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("length mismatch", func(t *testing.T) {
		cache, err := NewMemoryVectorCache()
		require.NoError(t, err)
		defer cache.Close()

		err = cache.PutVectors(ctx, "bert", []string{"a", "b"}, [][]float32{{1}})
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("closed cache", func(t *testing.T) {
		cache, err := NewMemoryVectorCache()
		require.NoError(t, err)
		require.NoError(t, cache.Close())

		_, _, err = cache.GetVectors(ctx, "bert", []string{"a"})
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
		_, err = cache.Count(ctx, "bert")
		assert.ErrorIs(t, err, storage.ErrStorageClosed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cache, err := NewMemoryVectorCache()
		require.NoError(t, err)
		defer cache.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err = cache.GetVectors(cctx, "bert", []string{"a"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil backend", func(t *testing.T) {
		_, err := NewVectorCache(nil)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

func TestVectorCache_NotOwnedBackendStaysOpen(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	cache, err := NewVectorCache(backend)
	require.NoError(t, err)
	require.NoError(t, cache.Close())
	assert.False(t, backend.IsClosed())
}

func TestMakeVectorKey(t *testing.T) {
	key := string(makeVectorKey("bert", "graph theory"))
	assert.Regexp(t, `^vec:bert:[0-9a-f]{16}$`, key)
	assert.Equal(t, key, string(makeVectorKey("bert", "graph theory")))
	assert.NotEqual(t, key, string(makeVectorKey("mpnet", "graph theory")))
}
