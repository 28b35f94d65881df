package kronroe

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, clock func() time.Time) *TemporalGraph {
	t.Helper()
	g, err := OpenInMemory(Config{Clock: clock, Features: DefaultFeatures()})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAssertFactAndFactByID(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	id, err := g.AssertFact("alice", "likes", NewTextValue("coffee"), now)
	require.NoError(t, err)
	assert.True(t, id.Valid())

	f, err := g.FactByID(id)
	require.NoError(t, err)
	assert.Equal(t, "alice", f.Subject)
	assert.Equal(t, "likes", f.Predicate)
	assert.Equal(t, NewTextValue("coffee"), f.Object)
	assert.Equal(t, 1.0, f.Confidence)
	assert.True(t, f.Current())
	assert.True(t, f.Active())
}

func TestFactByIDNotFound(t *testing.T) {
	g := newTestGraph(t, nil)
	_, err := g.FactByID(FactId("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCurrentFactsExcludesSupersededAndInvalidated(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	id1, err := g.AssertFact("alice", "role", NewTextValue("engineer"), now)
	require.NoError(t, err)

	current, err := g.CurrentFacts("alice", "role")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, id1, current[0].ID)

	id2, err := g.CorrectFact(id1, "alice", "role", NewTextValue("staff engineer"), now.Add(24*time.Hour))
	require.NoError(t, err)

	current, err = g.CurrentFacts("alice", "role")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, id2, current[0].ID)

	require.NoError(t, g.InvalidateFact(id2))
	current, err = g.CurrentFacts("alice", "role")
	require.NoError(t, err)
	assert.Len(t, current, 0)
}

func TestFactsAtPointInTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	jan, err := g.AssertFact("alice", "title", NewTextValue("engineer"), now)
	require.NoError(t, err)

	feb := now.AddDate(0, 1, 0)
	factsInFeb, err := g.FactsAt("alice", "title", feb)
	require.NoError(t, err)
	require.Len(t, factsInFeb, 1)
	assert.Equal(t, "engineer", factsInFeb[0].Object.Text)

	march := now.AddDate(0, 2, 0)
	_, err = g.CorrectFact(jan, "alice", "title", NewTextValue("senior engineer"), march)
	require.NoError(t, err)

	// The correction expires the "engineer" row in transaction time, so it
	// no longer answers point-in-time queries, even for February.
	factsInFeb, err = g.FactsAt("alice", "title", feb)
	require.NoError(t, err)
	assert.Empty(t, factsInFeb)

	factsInApril, err := g.FactsAt("alice", "title", now.AddDate(0, 3, 0))
	require.NoError(t, err)
	require.Len(t, factsInApril, 1)
	assert.Equal(t, "senior engineer", factsInApril[0].Object.Text)
}

func TestAllFactsAboutIncludesFullHistory(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	id1, err := g.AssertFact("alice", "title", NewTextValue("engineer"), now)
	require.NoError(t, err)
	_, err = g.CorrectFact(id1, "alice", "title", NewTextValue("senior engineer"), now.AddDate(0, 1, 0))
	require.NoError(t, err)
	_, err = g.AssertFact("alice", "likes", NewTextValue("tea"), now)
	require.NoError(t, err)

	history, err := g.AllFactsAbout("alice")
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestInvalidateFactLeavesValidToUntouched(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	id, err := g.AssertFact("alice", "likes", NewTextValue("coffee"), now)
	require.NoError(t, err)

	require.NoError(t, g.InvalidateFact(id))

	f, err := g.FactByID(id)
	require.NoError(t, err)
	assert.Nil(t, f.ValidTo)
	assert.NotNil(t, f.ExpiredAt)
	assert.False(t, f.Active())
	assert.True(t, f.Current())
}

func TestInvalidateFactNotFound(t *testing.T) {
	g := newTestGraph(t, nil)
	err := g.InvalidateFact(FactId("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAssertFactIdempotentReturnsSameID(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	id1, err := g.AssertFactIdempotent("alice", "onboarded", NewBooleanValue(true), now, "onboard-alice-2024")
	require.NoError(t, err)

	id2, err := g.AssertFactIdempotent("alice", "onboarded", NewBooleanValue(true), now, "onboard-alice-2024")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)

	history, err := g.AllFactsAbout("alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAssertFactWithEmbeddingRequiresVectorFeature(t *testing.T) {
	g, err := OpenInMemory(Config{Features: Features{Vector: false}})
	require.NoError(t, err)
	defer g.Close()

	_, err = g.AssertFactWithEmbedding("alice", "embeds", NewTextValue("x"), time.Now(), []float32{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFeatureUnavailable))
}

func TestOpenPersistsFactsAndVectorIndexAcrossReopen(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "kronroe.db")

	g1, err := Open(path, Config{Clock: fixedClock(now), Features: Features{Vector: true}})
	require.NoError(t, err)
	id, err := g1.AssertFactWithEmbedding("alice", "bio", NewTextValue("likes coffee"), now, []float32{1, 0, 0})
	require.NoError(t, err)
	require.NoError(t, g1.Close())

	g2, err := Open(path, Config{Clock: fixedClock(now), Features: Features{Vector: true}})
	require.NoError(t, err)
	defer g2.Close()

	f, err := g2.FactByID(id)
	require.NoError(t, err)
	assert.Equal(t, "alice", f.Subject)

	hits, err := g2.SearchByVector([]float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1, "reopening must rebuild the vector index from the embeddings table")
	assert.Equal(t, id, hits[0].Fact.ID)
}

func TestDirectionalRelationshipFactsRequireBothDirections(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newTestGraph(t, fixedClock(now))

	_, err := g.AssertFact("alice", "trusts", NewEntityValue("bob"), now)
	require.NoError(t, err)

	bobHistory, err := g.AllFactsAbout("bob")
	require.NoError(t, err)
	assert.Len(t, bobHistory, 0, "a fact recorded under alice is not automatically visible under bob")

	_, err = g.AssertFact("bob", "trusted_by", NewEntityValue("alice"), now)
	require.NoError(t, err)

	bobHistory, err = g.AllFactsAbout("bob")
	require.NoError(t, err)
	assert.Len(t, bobHistory, 1)
}
