package lottery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioCandidates = []Candidate{
	{DateString: "2024-01-01", Numbers: []int{1, 2, 3, 4, 5, 7}},
	{DateString: "2024-01-03", Numbers: []int{1, 2, 3, 4, 6, 7}},
	{DateString: "2024-01-06", Numbers: []int{10, 20, 30, 40, 50, 9}},
}

func newTestEngine(t *testing.T) *StatsEngine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Store.DSN = filepath.Join(t.TempDir(), "engine.db")

	engine, err := NewStatsEngineFromConfig(cfg, NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func TestStatsEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	has, err := engine.HasHistory(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	report, err := engine.Ingest(ctx, scenarioCandidates)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 0, report.Rejected)

	has, err = engine.HasHistory(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	analysis, err := engine.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.Draws)
	for _, n := range []int{1, 2, 3, 4} {
		assert.Equal(t, 2, analysis.White[n], "white %d", n)
	}
	for _, n := range []int{5, 6, 10, 20, 30, 40, 50} {
		assert.Equal(t, 1, analysis.White[n], "white %d", n)
	}
	assert.Equal(t, 2, analysis.Special[7])
	assert.Equal(t, 1, analysis.Special[9])

	pick, err := engine.Pick(ctx)
	require.NoError(t, err)
	require.NotNil(t, pick.MostLikely)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, pick.MostLikely.Ranked)
	assert.Equal(t, 7, pick.MostLikely.Special)
	require.NotNil(t, pick.LeastLikely)
	assert.Equal(t, []int{5, 6, 10, 20, 30}, pick.LeastLikely.Ranked)
	assert.Equal(t, 9, pick.LeastLikely.Special)
	assertValidRandomSet(t, pick.Random, DefaultGameConfig())
}

func TestStatsEngine_RangeQueries(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.Ingest(ctx, scenarioCandidates)
	require.NoError(t, err)

	records, err := engine.QueryRange(ctx, day(2024, 1, 2), day(2024, 1, 6))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-06", records[0].Date())
	assert.Equal(t, "2024-01-03", records[1].Date())

	analysis, err := engine.AnalyzeRange(ctx, day(2024, 1, 1), day(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.Draws)
	assert.Equal(t, 2, analysis.Special[7])
	assert.Equal(t, 0, analysis.Special[9])

	all, err := engine.AllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStatsEngine_Summary(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	engine.SetRandomSource(&sequenceSource{values: []int{0}})

	_, err := engine.Ingest(ctx, scenarioCandidates)
	require.NoError(t, err)

	summary, err := engine.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalDraws)
	assert.Equal(t, "2024-01-01", summary.Earliest)
	assert.Equal(t, "2024-01-06", summary.Latest)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, Numbers(summary.HotWhite))
	assert.Equal(t, []int{5, 6, 10, 20, 30}, Numbers(summary.ColdWhite))
	assert.Equal(t, []int{7}, Numbers(summary.HotSpecial))
	assert.Equal(t, []int{9}, Numbers(summary.ColdSpecial))
	assert.Len(t, summary.MissingWhite, 69-11)
	assert.Len(t, summary.MissingSpecial, 26-2)
	assert.NotContains(t, summary.MissingSpecial, 7)

	// fixed source always picks the low end of each range
	require.NotNil(t, summary.Pick)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, summary.Pick.Random.Ranked)
	assert.Equal(t, 1, summary.Pick.Random.Special)
}

func TestStatsEngine_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	engine, err := NewStatsEngine(nil, newFakeStore(), nil)
	require.NoError(t, err)

	summary, err := engine.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalDraws)
	assert.Empty(t, summary.Earliest)
	assert.Empty(t, summary.HotWhite)
	assert.Len(t, summary.MissingWhite, 69)
	assert.ErrorIs(t, summary.Pick.MostLikelyErr, ErrInsufficientHistory)

	_, err = engine.LatestReport(ctx)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestStatsEngine_StoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.readErr = ErrStorageUnavailable.WithDetails("offline")
	engine, err := NewStatsEngine(nil, store, nil)
	require.NoError(t, err)

	_, err = engine.HasHistory(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = engine.Analyze(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = engine.Pick(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = engine.Summary(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	require.NoError(t, engine.Close())
	assert.True(t, store.closed)
}

func TestNewStatsEngine_Errors(t *testing.T) {
	_, err := NewStatsEngine(nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	game := DefaultGameConfig()
	game.Name = ""
	_, err = NewStatsEngine(game, newFakeStore(), nil)
	assert.ErrorIs(t, err, ErrConfigInvalid)

	cfg := DefaultConfig()
	cfg.Store.Driver = "oracle"
	_, err = NewStatsEngineFromConfig(cfg, nil)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}
