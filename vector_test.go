package kronroe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchByVectorRanksByCosineSimilarity(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	_, err := g.AssertFactWithEmbedding("alice", "bio", NewTextValue("likes coffee"), now, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = g.AssertFactWithEmbedding("bob", "bio", NewTextValue("likes tea"), now, []float32{0, 1, 0})
	require.NoError(t, err)
	_, err = g.AssertFactWithEmbedding("carol", "bio", NewTextValue("also likes coffee"), now, []float32{0.9, 0.1, 0})
	require.NoError(t, err)

	hits, err := g.SearchByVector([]float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "alice", hits[0].Fact.Subject)
	assert.Equal(t, "carol", hits[1].Fact.Subject)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchByVectorDimensionMismatch(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	_, err := g.AssertFactWithEmbedding("alice", "bio", NewTextValue("x"), now, []float32{1, 0, 0})
	require.NoError(t, err)

	_, err = g.AssertFactWithEmbedding("bob", "bio", NewTextValue("y"), now, []float32{1, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = g.SearchByVector([]float32{1, 0}, 1, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestSearchByVectorTemporalGating(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	id, err := g.AssertFactWithEmbedding("alice", "title", NewTextValue("engineer"), now, []float32{1, 0})
	require.NoError(t, err)

	past := now
	pastHits, err := g.SearchByVector([]float32{1, 0}, 10, &past)
	require.NoError(t, err)
	require.Len(t, pastHits, 1)
	assert.Equal(t, "engineer", pastHits[0].Fact.Object.Text)

	before := now.AddDate(0, 0, -1)
	beforeHits, err := g.SearchByVector([]float32{1, 0}, 10, &before)
	require.NoError(t, err)
	assert.Empty(t, beforeHits, "a fact never appears for an instant before its valid_from")

	_, err = g.CorrectFact(id, "alice", "title", NewTextValue("senior engineer"), now.AddDate(0, 1, 0))
	require.NoError(t, err)

	// The corrected-away row is expired in transaction time, and the new row
	// carries no embedding, so neither search finds anything any more.
	currentHits, err := g.SearchByVector([]float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, currentHits)

	pastHits, err = g.SearchByVector([]float32{1, 0}, 10, &past)
	require.NoError(t, err)
	assert.Empty(t, pastHits)
}

func TestCosineUnitAndNormalize(t *testing.T) {
	a := normalize([]float32{3, 4})
	assert.InDelta(t, 1.0, cosineUnit(a, a), 1e-6)

	zero := normalize([]float32{0, 0})
	assert.Equal(t, float32(0), zero[0])
}

func TestEncodeDecodeFloat32sRoundTrip(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.125}
	got := decodeFloat32s(encodeFloat32s(v))
	assert.Equal(t, v, got)
}
