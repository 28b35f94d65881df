package kronroe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTripPreservesFacts(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := newTestGraph(t, fixedClock(now))

	id1, err := src.AssertFact("alice", "likes", NewTextValue("coffee"), now)
	require.NoError(t, err)
	_, err = src.CorrectFact(id1, "alice", "likes", NewTextValue("tea"), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NoError(t, src.InvalidateFact(id1))

	data, err := src.Export()
	require.NoError(t, err)

	dst := newTestGraph(t, fixedClock(now))
	result, err := dst.Import(data)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)

	srcHistory, err := src.AllFactsAbout("alice")
	require.NoError(t, err)
	dstHistory, err := dst.AllFactsAbout("alice")
	require.NoError(t, err)
	require.Len(t, dstHistory, len(srcHistory))

	byID := make(map[FactId]Fact)
	for _, f := range dstHistory {
		byID[f.ID] = f
	}
	for _, f := range srcHistory {
		got, ok := byID[f.ID]
		require.True(t, ok)
		assert.Equal(t, f.Subject, got.Subject)
		assert.Equal(t, f.Predicate, got.Predicate)
		assert.Equal(t, f.Object, got.Object)
		assert.True(t, f.ValidFrom.Equal(got.ValidFrom))
		assert.True(t, f.RecordedAt.Equal(got.RecordedAt))
		if f.ExpiredAt != nil {
			require.NotNil(t, got.ExpiredAt)
			assert.True(t, f.ExpiredAt.Equal(*got.ExpiredAt))
		}
	}
}

func TestImportSkipsExistingFactIDs(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := newTestGraph(t, fixedClock(now))
	_, err := src.AssertFact("alice", "likes", NewTextValue("coffee"), now)
	require.NoError(t, err)

	data, err := src.Export()
	require.NoError(t, err)

	dst := newTestGraph(t, fixedClock(now))
	first, err := dst.Import(data)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := dst.Import(data)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Skipped)
}

func TestImportRejectsUnsupportedVersion(t *testing.T) {
	g := newTestGraph(t, nil)
	_, err := g.Import([]byte(`{"version": 99, "facts": []}`))
	require.Error(t, err)
}

func TestImportReindexesFulltextWhenEnabled(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src, err := OpenInMemory(Config{Clock: fixedClock(now), Features: Features{Fulltext: true}})
	require.NoError(t, err)
	defer src.Close()

	_, err = src.AssertFact("alice", "bio", NewTextValue("loves espresso"), now)
	require.NoError(t, err)
	data, err := src.Export()
	require.NoError(t, err)

	dst, err := OpenInMemory(Config{Clock: fixedClock(now), Features: Features{Fulltext: true}})
	require.NoError(t, err)
	defer dst.Close()

	_, err = dst.Import(data)
	require.NoError(t, err)

	hits, err := dst.SearchText("espresso", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].Fact.Subject)
}
