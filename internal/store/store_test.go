package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleIndex() *graph.Index {
	pacino := models.Person{ID: 1158, Name: "Al Pacino"}
	deNiro := models.Person{ID: 380, Name: "Robert De Niro"}
	coppola := models.Person{ID: 1776, Name: "Francis Ford Coppola"}
	return graph.FromMovies([]models.Movie{
		models.NewMovie(949, "Heat", "1995-12-15", []string{"Action", "Crime", "Drama"}, []models.Person{pacino, deNiro}),
		models.NewMovie(240, "The Godfather Part II", "1974-12-20", []string{"Drama", "Crime"}, []models.Person{pacino, deNiro, coppola}),
		models.NewMovie(1, "Unknown", "", []string{"Drama"}, nil),
	})
}

// storeContract exercises the behavior every backend shares.
func storeContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	ix := sampleIndex()
	require.NoError(t, SaveIndex(ctx, st, ix))

	loaded, err := LoadIndex(ctx, st, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), loaded.Len())
	assert.Equal(t, ix.Stats(), loaded.Stats())

	heat, ok := loaded.Movie(949)
	require.True(t, ok)
	assert.Equal(t, "Heat", heat.Name)
	assert.Equal(t, []string{"Action", "Crime", "Drama"}, heat.Genres)
	assert.Equal(t, "Al Pacino", heat.People[0].Name, "credit order survives")

	// Save replaces, never merges.
	smaller := graph.FromMovies([]models.Movie{
		models.NewMovie(5, "Solo", "", []string{"Drama"}, nil),
	})
	require.NoError(t, SaveIndex(ctx, st, smaller))
	loaded, err = LoadIndex(ctx, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.False(t, loaded.Contains(949))
}

func TestMockStore_Contract(t *testing.T) {
	st := NewMockStore()
	storeContract(t, st)
	assert.Equal(t, 2, st.Saves())
	assert.NoError(t, st.Close())
}

func TestMockStore_SaveIsolatesCaller(t *testing.T) {
	st := NewMockStore()
	ctx := context.Background()
	snap := sampleIndex().Snapshot()
	require.NoError(t, st.Save(ctx, snap))

	snap.Movies[0].Name = "mutated"
	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", loaded.Movies[0].Name)
}

func TestFileStore_Contract(t *testing.T) {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "db.json"), quietLogger())
	require.NoError(t, err)
	storeContract(t, st)
	assert.NoError(t, st.Close())
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(filepath.Join(dir, "db.json"), quietLogger())
	require.NoError(t, err)
	require.NoError(t, SaveIndex(context.Background(), st, sampleIndex()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "db.json", entries[0].Name())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	st, err := NewFileStore(path, quietLogger())
	require.NoError(t, err)

	_, err = st.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStore_InconsistentSnapshotRejected(t *testing.T) {
	ctx := context.Background()
	st, err := NewFileStore(filepath.Join(t.TempDir(), "db.json"), quietLogger())
	require.NoError(t, err)

	snap := sampleIndex().Snapshot()
	snap.PersonMovies = snap.PersonMovies[1:]
	require.NoError(t, st.Save(ctx, snap))

	_, err = LoadIndex(ctx, st, nil)
	assert.ErrorIs(t, err, graph.ErrInconsistentSnapshot)
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	_, err := NewFileStore("", nil)
	assert.Error(t, err)
}

func TestSave_NilSnapshot(t *testing.T) {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "db.json"), nil)
	require.NoError(t, err)
	assert.Error(t, st.Save(context.Background(), nil))
	assert.Error(t, NewMockStore().Save(context.Background(), nil))
}

func TestPostgresRows_RoundTrip(t *testing.T) {
	snap := sampleIndex().Snapshot()
	movies, credits := snapshotRows(snap)

	require.Len(t, movies, 3)
	assert.Len(t, credits, 5)

	restored := graph.FromMovies(rowsToMovies(movies, credits))
	assert.Equal(t, sampleIndex().Stats(), restored.Stats())
	gf2, ok := restored.Movie(240)
	require.True(t, ok)
	assert.Equal(t, []string{"Al Pacino", "Robert De Niro", "Francis Ford Coppola"},
		[]string{gf2.People[0].Name, gf2.People[1].Name, gf2.People[2].Name})
}

func TestNeo4jRecord_Decode(t *testing.T) {
	row := map[string]any{
		"id":           int64(240),
		"name":         "The Godfather Part II",
		"release_date": "1974-12-20",
		"genres":       []any{"Drama", "Crime"},
		"people": []any{
			map[string]any{"id": int64(380), "name": "Robert De Niro", "position": int64(1)},
			map[string]any{"id": int64(1158), "name": "Al Pacino", "position": int64(0)},
		},
	}
	m, err := recordToMovie(row)
	require.NoError(t, err)
	assert.Equal(t, int64(240), m.ID)
	assert.Equal(t, []string{"Drama", "Crime"}, m.Genres)
	require.Len(t, m.People, 2)
	assert.Equal(t, "Al Pacino", m.People[0].Name, "ordered by position")
}

func TestNeo4jRecord_MovieWithoutCredits(t *testing.T) {
	row := map[string]any{
		"id":     int64(1),
		"name":   "Unknown",
		"genres": []any{"Drama"},
		"people": []any{map[string]any{"id": nil, "name": nil, "position": nil}},
	}
	m, err := recordToMovie(row)
	require.NoError(t, err)
	assert.Empty(t, m.People)
}

func TestNeo4jRecord_MissingID(t *testing.T) {
	_, err := recordToMovie(map[string]any{"name": "x"})
	assert.Error(t, err)
}

func TestNeo4jParams(t *testing.T) {
	movies, credits := neo4jParams(sampleIndex().Snapshot())
	assert.Len(t, movies, 3)
	assert.Len(t, credits, 5)
	for _, m := range movies {
		assert.NotNil(t, m["genres"])
	}
}
