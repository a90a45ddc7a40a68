package warm

import (
	"bytes"
	"context"
	"testing"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/ai/cache"
	"github.com/poiesic/fingerprint/ai/mock"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warmTable() *core.Table {
	return &core.Table{
		Columns: core.RequiredColumns,
		Records: []core.Record{
			{Researcher: "Ada", Field: "Mathematics", Topic: "graph theory", Percentage: 70},
			{Researcher: "Ada", Field: "Mathematics", Topic: "combinatorics", Percentage: 30},
			{Researcher: "Bo", Field: "Biology", Topic: "genomics", Percentage: 100},
		},
	}
}

func TestWarmer_Run(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	var out bytes.Buffer

	w := NewWarmer(mock.NewMockProvider(), store, &Config{BatchSize: 2, ReportInterval: 1, MaxRetries: 1}, &out)
	stats, err := w.Run(ctx, warmTable(), "bert", "MPNET")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// 2 profile texts + 3 topics
	assert.Equal(t, Stats{Model: "bert", Texts: 5, Embedded: 5, Cached: 0, Elapsed: stats[0].Elapsed}, stats[0])
	assert.Equal(t, "mpnet", stats[1].Model)

	count, err := store.Count(ctx, "bert")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Contains(t, out.String(), "Warming 5 texts for bert")

	stats, err = w.Run(ctx, warmTable(), "bert")
	require.NoError(t, err)
	assert.Equal(t, 0, stats[0].Embedded)
	assert.Equal(t, 5, stats[0].Cached)
}

func TestWarmer_CacheServesBuild(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	w := NewWarmer(mock.NewMockProvider(), store, DefaultConfig(), nil)
	_, err := w.Run(ctx, warmTable(), "bert")
	require.NoError(t, err)

	inner := mock.NewMockProvider()
	cached := cache.NewProvider(inner, cache.WithStore(store))
	embedder, err := cached.Embedder("bert")
	require.NoError(t, err)

	_, err = profile.Build(ctx, warmTable(), embedder, profile.WithModel("bert"))
	require.NoError(t, err)

	raw, err := inner.(*mock.MockProvider).GetMockEmbedder("bert")
	require.NoError(t, err)
	assert.Zero(t, raw.CallCount(), "warm cache answers every lookup")
}

func TestWarmer_Errors(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	w := NewWarmer(mock.NewMockProvider(), store, DefaultConfig(), nil)
	_, err := w.Run(ctx, warmTable())
	assert.ErrorIs(t, err, ErrNoModels)

	_, err = w.Run(ctx, warmTable(), "gpt")
	assert.ErrorIs(t, err, ai.ErrUnknownModel)

	_, err = w.Run(ctx, &core.Table{}, "bert")
	assert.ErrorIs(t, err, core.ErrSchema)

	w = NewWarmer(mock.NewMockProvider(), store, &Config{BatchSize: 0}, nil)
	_, err = w.Run(ctx, warmTable(), "bert")
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, dedupe(nil))
}
