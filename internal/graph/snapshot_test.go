package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripThroughRestore(t *testing.T) {
	ix := newTestIndex(t)
	snap := ix.Snapshot()

	restored, err := Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())

	heat, _ := restored.Movie(949)
	assert.ElementsMatch(t, []int64{238, 240},
		restored.CandidatesSharingPersonAndGenre(heat, "Crime", AlwaysValid).Sorted())
}

func TestSnapshot_SurvivesJSON(t *testing.T) {
	ix := newTestIndex(t)
	raw, err := json.Marshal(ix.Snapshot())
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	restored, err := Restore(&decoded)
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), restored.Len())
	assert.Len(t, restored.LookupByExactName("The Godfather"), 1)
}

func TestSnapshot_IsDeterministic(t *testing.T) {
	a := newTestIndex(t).Snapshot()

	movies := testMovies()
	reversed := New()
	for i := len(movies) - 1; i >= 0; i-- {
		reversed.Insert(movies[i])
	}
	assert.Equal(t, a, reversed.Snapshot())
}

func TestRestore_RejectsMissingDerivedEntry(t *testing.T) {
	snap := newTestIndex(t).Snapshot()
	snap.PersonGenreMovies = snap.PersonGenreMovies[1:]

	_, err := Restore(snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentSnapshot)
}

func TestRestore_RejectsExtraMovieInDerivedEntry(t *testing.T) {
	snap := newTestIndex(t).Snapshot()
	snap.PersonMovies[0].MovieIDs = append(snap.PersonMovies[0].MovieIDs, 123456)

	_, err := Restore(snap)
	assert.ErrorIs(t, err, ErrInconsistentSnapshot)
}

func TestRestore_RejectsDuplicateMovie(t *testing.T) {
	snap := newTestIndex(t).Snapshot()
	snap.Movies = append(snap.Movies, snap.Movies[0])

	_, err := Restore(snap)
	assert.ErrorIs(t, err, ErrInconsistentSnapshot)
}

func TestRestore_NilSnapshotIsEmptyIndex(t *testing.T) {
	ix, err := Restore(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
}

func TestFromMovies_MatchesIncrementalInsert(t *testing.T) {
	assert.Equal(t, newTestIndex(t).Snapshot(), FromMovies(testMovies()).Snapshot())
}
