package kronroe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHybridFusesChannelsAndIsDeterministic(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	_, err := g.AssertFactWithEmbedding("alice", "bio", NewTextValue("loves coffee and espresso"), now, []float32{1, 0})
	require.NoError(t, err)
	_, err = g.AssertFactWithEmbedding("bob", "bio", NewTextValue("loves tea"), now, []float32{0, 1})
	require.NoError(t, err)
	_, err = g.AssertFactWithEmbedding("carol", "bio", NewTextValue("drinks coffee daily"), now, []float32{0.8, 0.2})
	require.NoError(t, err)

	hits1, err := g.SearchHybrid("coffee", []float32{1, 0}, 10, HybridParams{})
	require.NoError(t, err)
	hits2, err := g.SearchHybrid("coffee", []float32{1, 0}, 10, HybridParams{})
	require.NoError(t, err)
	assert.Equal(t, hits1, hits2, "identical queries must fuse to identical ranked results")

	require.NotEmpty(t, hits1)
	assert.Equal(t, "alice", hits1[0].Fact.Subject, "alice and carol tie on fused score (each ranks first in one channel and second in the other); alice wins the FactId tie-break")
}

func TestSearchHybridRequiresFeature(t *testing.T) {
	g, err := OpenInMemory(Config{Features: Features{Fulltext: true, Vector: true, Hybrid: false}})
	require.NoError(t, err)
	defer g.Close()

	_, err = g.SearchHybrid("coffee", []float32{1, 0}, 10, HybridParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFeatureUnavailable))
}

func TestSearchHybridMissingChannelContributesZero(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	// A fact with text but no embedding: only findable via full text.
	_, err := g.AssertFact("dave", "bio", NewTextValue("enjoys coffee"), now)
	require.NoError(t, err)

	hits, err := g.SearchHybrid("coffee", nil, 10, HybridParams{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "dave", hits[0].Fact.Subject)
	assert.Equal(t, 0, hits[0].VectorRank)
	assert.Equal(t, 1, hits[0].TextRank)
	assert.Equal(t, 0.0, hits[0].VectorContribution)
}

func TestSearchHybridScoreEqualsContributionSum(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	_, err := g.AssertFactWithEmbedding("alice", "bio", NewTextValue("loves coffee"), now, []float32{1, 0})
	require.NoError(t, err)
	_, err = g.AssertFactWithEmbedding("bob", "bio", NewTextValue("loves tea"), now.AddDate(0, 0, -30), []float32{0, 1})
	require.NoError(t, err)

	hits, err := g.SearchHybrid("coffee tea", []float32{0.7, 0.7}, 10, HybridParams{
		TemporalHalfLife: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.InDelta(t, h.TextContribution+h.VectorContribution+h.TemporalAdjustment, h.Score, 1e-9)
	}
}

func TestTemporalAdjustmentCappedAtTenPercentOfAbsoluteScale(t *testing.T) {
	f := Fact{ValidFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	now := f.ValidFrom.Add(100 * 24 * time.Hour) // far beyond one half-life
	adj := temporalAdjustment(f, 24*time.Hour, now)
	assert.LessOrEqual(t, adj, 0.1)
	assert.GreaterOrEqual(t, adj, -0.1)
}

func TestTemporalAdjustmentUsesValidFromNotRecordedAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	// Recorded long ago but just became valid: adjustment should reflect the
	// recent valid_from, not the old RecordedAt.
	f := Fact{ValidFrom: now, RecordedAt: now.AddDate(-1, 0, 0)}
	adj := temporalAdjustment(f, 24*time.Hour, now)
	assert.InDelta(t, 0.1, adj, 1e-9, "a fact just now valid should get the maximum positive recency nudge")
}
