package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
)

var errBroken = errors.New("broken")

type fakeSource struct {
	mu      sync.Mutex
	pages   map[int][]int64
	search  map[string][]int64
	broken  map[int64]bool
	fetched []int64
	pageErr map[int]error
}

func (f *fakeSource) FetchMovie(_ context.Context, id int64) (models.Movie, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()
	if f.broken[id] {
		return models.Movie{}, fmt.Errorf("movie %d: %w", id, errBroken)
	}
	return models.NewMovie(id, fmt.Sprintf("movie-%d", id), "", []string{"Drama"},
		[]models.Person{{ID: id % 3, Name: "p"}}), nil
}

func (f *fakeSource) TopRated(_ context.Context, page int) ([]int64, error) {
	if err := f.pageErr[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *fakeSource) SearchMovies(_ context.Context, query string) ([]int64, error) {
	return f.search[query], nil
}

func newIngester(src Source, ix *graph.Index) *Ingester {
	return New(src, ix, 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPopulate_StopsAtCount(t *testing.T) {
	src := &fakeSource{pages: map[int][]int64{
		1: {1, 2, 3},
		2: {4, 5, 6},
		3: {7, 8, 9},
	}}
	ix := graph.New()

	rep, err := newIngester(src, ix).Populate(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Pages)
	assert.Equal(t, 5, rep.Added)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, rep.AddedIDs, "listing order preserved")
	assert.Equal(t, 5, ix.Len())
	assert.False(t, ix.Contains(6))
}

func TestPopulate_FailuresDoNotCount(t *testing.T) {
	src := &fakeSource{
		pages:  map[int][]int64{1: {1, 2, 3}, 2: {4, 5, 6}},
		broken: map[int64]bool{2: true},
	}
	ix := graph.New()

	rep, err := newIngester(src, ix).Populate(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Added)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, []int64{1, 3, 4}, rep.AddedIDs)
}

func TestPopulate_FailureRefilledFromSamePage(t *testing.T) {
	src := &fakeSource{
		pages:  map[int][]int64{1: {1, 2, 3, 4, 5}},
		broken: map[int64]bool{2: true},
	}
	ix := graph.New()

	rep, err := newIngester(src, ix).Populate(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Pages)
	assert.Equal(t, 3, rep.Added)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, []int64{1, 3, 4}, rep.AddedIDs)
	assert.NotContains(t, src.fetched, int64(5))
}

func TestPopulate_EmptyPageStops(t *testing.T) {
	src := &fakeSource{pages: map[int][]int64{1: {1, 2}}}
	ix := graph.New()

	rep, err := newIngester(src, ix).Populate(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Pages)
	assert.Equal(t, 2, rep.Added)
}

func TestPopulate_FailedPageStops(t *testing.T) {
	src := &fakeSource{
		pages:   map[int][]int64{1: {1, 2}, 3: {5}},
		pageErr: map[int]error{2: errors.New("status 500")},
	}
	ix := graph.New()

	rep, err := newIngester(src, ix).Populate(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Added)
	assert.False(t, ix.Contains(5))
}

func TestPopulate_ExistingMoviesCountWithoutRefetch(t *testing.T) {
	src := &fakeSource{pages: map[int][]int64{1: {1, 2, 3}}}
	ix := graph.New()
	ix.Insert(models.NewMovie(2, "already", "", []string{"Drama"}, nil))

	rep, err := newIngester(src, ix).Populate(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Added)
	assert.Equal(t, 1, rep.Existing)
	assert.NotContains(t, src.fetched, int64(2))
	m, _ := ix.Movie(2)
	assert.Equal(t, "already", m.Name)
}

func TestPopulate_ZeroCount(t *testing.T) {
	src := &fakeSource{pages: map[int][]int64{1: {1}}}
	rep, err := newIngester(src, graph.New()).Populate(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
}

func TestPopulate_CancelledContext(t *testing.T) {
	src := &fakeSource{pages: map[int][]int64{1: {1}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newIngester(src, graph.New()).Populate(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddByTitle(t *testing.T) {
	src := &fakeSource{
		search: map[string][]int64{"Heat": {949, 86295, 7}},
		broken: map[int64]bool{7: true},
	}
	ix := graph.New()
	ix.Insert(models.NewMovie(86295, "Heat", "2013-01-01", []string{"Drama"}, nil))

	rep, err := newIngester(src, ix).AddByTitle(context.Background(), "Heat")
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Added)
	assert.Equal(t, 1, rep.Existing)
	assert.Equal(t, 1, rep.Skipped)
	assert.True(t, ix.Contains(949))
	assert.Equal(t, "pages=1 added=1 existing=1 skipped=1", rep.String())
}

func TestAddByTitle_NoMatches(t *testing.T) {
	src := &fakeSource{}
	rep, err := newIngester(src, graph.New()).AddByTitle(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Zero(t, rep.Added)
}
