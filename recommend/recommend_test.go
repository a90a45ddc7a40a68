package recommend

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/poiesic/fingerprint/ai/mock"
	"github.com/poiesic/fingerprint/ai/static"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/match"
	"github.com/poiesic/fingerprint/metric"
	"github.com/poiesic/fingerprint/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProfile(t *testing.T, records ...core.Record) *profile.Profile {
	t.Helper()
	embedder, err := static.NewEmbedder("bert")
	require.NoError(t, err)
	p, err := profile.Build(context.Background(),
		&core.Table{Columns: core.RequiredColumns, Records: records},
		embedder, profile.WithModel("bert"))
	require.NoError(t, err)
	return p
}

func scenarioProfile(t *testing.T) *profile.Profile {
	return buildProfile(t,
		core.Record{Researcher: "A", Field: "Physics", Topic: "topic1", Percentage: 80},
		core.Record{Researcher: "A", Field: "Physics", Topic: "topic2", Percentage: 20},
		core.Record{Researcher: "B", Topic: "topic1", Percentage: 10},
	)
}

type recordingMonitor struct {
	calls  []string
	result match.Result
	scores []float64
}

func (r *recordingMonitor) Start(_ core.Query) { r.calls = append(r.calls, "start") }
func (r *recordingMonitor) AfterResolve(res match.Result) {
	r.calls = append(r.calls, "resolve")
	r.result = res
}
func (r *recordingMonitor) AfterScore(_ metric.Metric, scores []float64) {
	r.calls = append(r.calls, "score")
	r.scores = scores
}
func (r *recordingMonitor) Finish(_ *core.Response) { r.calls = append(r.calls, "finish") }

func TestRecommend_ExactTopic(t *testing.T) {
	p := scenarioProfile(t)
	mon := &recordingMonitor{}

	resp, err := Recommend(context.Background(), p,
		core.Query{Topic: "topic1", TopK: 2, Metric: "cosine"}, WithMonitor(mon))
	require.NoError(t, err)

	assert.Equal(t, "topic1", resp.QueryTopic)
	assert.Equal(t, "topic1", resp.MatchedTopic)
	assert.Equal(t, "exact", resp.MatchStage)
	assert.Equal(t, "cosine", resp.Metric)
	assert.Equal(t, "bert", resp.Model)
	assert.Equal(t, 2, resp.TotalCandidates)
	require.Len(t, resp.Results, 2)
	assert.GreaterOrEqual(t, resp.Results[0].Score, resp.Results[1].Score)

	assert.Equal(t, []string{"start", "resolve", "score", "finish"}, mon.calls)
	assert.Len(t, mon.scores, 2)
}

func TestRecommend_ResultFields(t *testing.T) {
	p := scenarioProfile(t)

	resp, err := Recommend(context.Background(), p, core.Query{Topic: "topic2", TopK: 10})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	byName := map[string]core.Recommendation{}
	for _, r := range resp.Results {
		byName[r.Researcher] = r
	}
	require.NotNil(t, byName["A"].Field)
	assert.Equal(t, "Physics", *byName["A"].Field)
	assert.Equal(t, []string{"topic1 (0.80)", "topic2 (0.20)"}, byName["A"].TopTopics)
	assert.Nil(t, byName["B"].Field)
	assert.Equal(t, []string{"topic1 (0.10)"}, byName["B"].TopTopics)
}

func TestRecommend_TopicPreview(t *testing.T) {
	p := scenarioProfile(t)

	resp, err := Recommend(context.Background(), p, core.Query{Topic: "topic1", TopK: 1}, WithTopicPreview(1))
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.LessOrEqual(t, len(resp.Results[0].TopTopics), 1)
}

func TestRecommend_CaseInsensitiveAndSubstring(t *testing.T) {
	p := scenarioProfile(t)

	resp, err := Recommend(context.Background(), p, core.Query{Topic: "  TOPIC2 ", TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, "topic2", resp.MatchedTopic)
	assert.Equal(t, "exact", resp.MatchStage)

	resp, err = Recommend(context.Background(), p, core.Query{Topic: "PIC", TopK: 1})
	require.NoError(t, err)
	assert.Equal(t, "topic1", resp.MatchedTopic, "first substring hit in topic order")
	assert.Equal(t, "substring", resp.MatchStage)
}

func TestRecommend_NoMatch(t *testing.T) {
	p := scenarioProfile(t)
	mon := &recordingMonitor{}

	_, err := Recommend(context.Background(), p,
		core.Query{Topic: "totally-unknown-subject-zzz", TopK: 5}, WithMonitor(mon))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoMatch)

	var noMatch *core.NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, "totally-unknown-subject-zzz", noMatch.Query)
	assert.NotEmpty(t, noMatch.Suggestions)
	assert.LessOrEqual(t, len(noMatch.Suggestions), 5)

	assert.Equal(t, []string{"start", "resolve"}, mon.calls, "scoring must not start")
}

func TestRecommend_EmptyProfile(t *testing.T) {
	p := buildProfile(t)

	_, err := Recommend(context.Background(), p, core.Query{Topic: "anything", TopK: 3})
	var noMatch *core.NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Empty(t, noMatch.Suggestions)
	assert.NotNil(t, noMatch.Suggestions)
}

func TestRecommend_UnknownMetricFallsBackToCosine(t *testing.T) {
	p := scenarioProfile(t)
	ctx := context.Background()

	cosine, err := Recommend(ctx, p, core.Query{Topic: "topic1", TopK: 2, Metric: "cosine"})
	require.NoError(t, err)
	foobar, err := Recommend(ctx, p, core.Query{Topic: "topic1", TopK: 2, Metric: "foobar"})
	require.NoError(t, err)

	assert.Equal(t, "cosine", foobar.Metric)
	assert.Equal(t, cosine.Results, foobar.Results)
}

func TestRecommend_AllMetrics(t *testing.T) {
	p := scenarioProfile(t)

	for _, name := range metric.Names() {
		t.Run(name, func(t *testing.T) {
			resp, err := Recommend(context.Background(), p, core.Query{Topic: "topic1", TopK: 2, Metric: name})
			require.NoError(t, err)
			assert.Equal(t, name, resp.Metric)
			assert.Len(t, resp.Results, 2)
		})
	}
}

func TestRecommend_OrderingAndTopK(t *testing.T) {
	// Every text embeds to the same vector, so all scores tie.
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	})
	p, err := profile.Build(context.Background(), &core.Table{
		Columns: core.RequiredColumns,
		Records: []core.Record{
			{Researcher: "Carol", Topic: "t", Percentage: 10},
			{Researcher: "Alice", Topic: "t", Percentage: 10},
			{Researcher: "Bob", Topic: "t", Percentage: 10},
		},
	}, embedder)
	require.NoError(t, err)

	resp, err := Recommend(context.Background(), p, core.Query{Topic: "t", TopK: 10})
	require.NoError(t, err)
	names := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		names[i] = r.Researcher
	}
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names, "ties keep row order")

	resp, err = Recommend(context.Background(), p, core.Query{Topic: "t", TopK: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestRecommend_InvalidInput(t *testing.T) {
	p := scenarioProfile(t)

	_, err := Recommend(context.Background(), p, core.Query{Topic: "topic1", TopK: 0})
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = Recommend(context.Background(), nil, core.Query{Topic: "topic1", TopK: 1})
	assert.ErrorIs(t, err, ErrProfileRequired)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Recommend(ctx, p, core.Query{Topic: "topic1", TopK: 1})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSuggest(t *testing.T) {
	p := scenarioProfile(t)

	assert.Equal(t, []string{"topic1", "topic2"}, Suggest(p, "topic", 5))
	assert.Equal(t, []string{"topic1"}, Suggest(p, "topic", 1))
	assert.Len(t, Suggest(p, "zzz", 5), 2)
	assert.Equal(t, []string{}, Suggest(p, "", 5))
	assert.Equal(t, []string{}, Suggest(nil, "topic", 5))
}

func TestTextMonitor(t *testing.T) {
	p := scenarioProfile(t)
	var buf bytes.Buffer

	_, err := Recommend(context.Background(), p, core.Query{Topic: "topic1", TopK: 1}, WithMonitor(&TextMonitor{W: &buf}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `query: "topic1"`)
	assert.Contains(t, out, "via exact match")
	assert.Contains(t, out, "scored 2 candidates with cosine")
	assert.Contains(t, out, "returning 1 of 2 candidates")
}
