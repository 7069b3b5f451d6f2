package tmdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTMDB struct {
	t        *testing.T
	hits     atomic.Int64
	lastAuth atomic.Value
	lastKey  atomic.Value
}

func (f *fakeTMDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	f.lastAuth.Store(r.Header.Get("Authorization"))
	f.lastKey.Store(r.URL.Query().Get("api_key"))
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/movie/949":
		fmt.Fprint(w, `{"id":949,"title":"Heat","release_date":"1995-12-15","genres":[{"id":28,"name":"Action"},{"id":80,"name":"Crime"}]}`)
	case "/movie/949/credits":
		fmt.Fprint(w, `{"cast":[
			{"id":1158,"name":"Al Pacino"},
			{"id":380,"name":"Robert De Niro"},
			{"id":null,"name":"Nobody"},
			{"id":5576,"name":"Val Kilmer"}
		],"crew":[
			{"id":638,"name":"Michael Mann"},
			{"id":638,"name":"Michael Mann"},
			{"id":7,"name":"Crew Two"}
		]}`)
	case "/movie/1":
		fmt.Fprint(w, `{"id":1,"title":"","genres":[]}`)
	case "/movie/top_rated":
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{"page":1,"results":[{"id":238},{"id":278}],"total_pages":2}`)
			return
		}
		fmt.Fprint(w, `{"page":2,"results":[],"total_pages":2}`)
	case "/search/movie":
		assert.Equal(f.t, "Heat", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"page":1,"results":[{"id":949},{"id":86295}]}`)
	case "/genre/movie/list":
		fmt.Fprint(w, `{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comedy"}]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status_code":34,"status_message":"The resource you requested could not be found."}`)
	}
}

func newTestClient(t *testing.T, key string, mutate func(*Options)) (*Client, *fakeTMDB) {
	t.Helper()
	fake := &fakeTMDB{t: t}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	opts := Options{APIKey: key, BaseURL: srv.URL}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := NewClient(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c, fake
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Options{}, nil)
	assert.Error(t, err)
}

func TestFetchMovie(t *testing.T) {
	c, _ := newTestClient(t, "v3key", nil)

	m, err := c.FetchMovie(context.Background(), 949)
	require.NoError(t, err)

	assert.Equal(t, int64(949), m.ID)
	assert.Equal(t, "Heat", m.Name)
	assert.Equal(t, "1995-12-15", m.ReleaseDate)
	assert.Equal(t, []string{"Action", "Crime"}, m.Genres)

	ids := make([]int64, 0, len(m.People))
	for _, p := range m.People {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{1158, 380, 5576, 638, 7}, ids, "null IDs dropped, duplicates collapsed")
}

func TestFetchMovie_RespectsCreditLimits(t *testing.T) {
	c, _ := newTestClient(t, "v3key", func(o *Options) {
		o.CastLimit = 2
		o.CrewLimit = 1
	})

	m, err := c.FetchMovie(context.Background(), 949)
	require.NoError(t, err)

	require.Len(t, m.People, 3)
	assert.Equal(t, "Al Pacino", m.People[0].Name)
	assert.Equal(t, "Robert De Niro", m.People[1].Name)
	assert.Equal(t, "Michael Mann", m.People[2].Name)
}

func TestFetchMovie_UnavailableErrors(t *testing.T) {
	c, _ := newTestClient(t, "v3key", nil)

	_, err := c.FetchMovie(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = c.FetchMovie(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable, "missing title")
}

func TestFetchMovie_Cached(t *testing.T) {
	c, fake := newTestClient(t, "v3key", nil)
	ctx := context.Background()

	first, err := c.FetchMovie(ctx, 949)
	require.NoError(t, err)
	hits := fake.hits.Load()

	first.People[0].Name = "mutated"
	second, err := c.FetchMovie(ctx, 949)
	require.NoError(t, err)

	assert.Equal(t, hits, fake.hits.Load(), "second fetch served from cache")
	assert.Equal(t, "Al Pacino", second.People[0].Name, "cache returns copies")
}

func TestFetchMovie_ConcurrentCallers(t *testing.T) {
	c, _ := newTestClient(t, "v3key", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := c.FetchMovie(context.Background(), 949)
			assert.NoError(t, err)
			assert.Equal(t, "Heat", m.Name)
		}()
	}
	wg.Wait()
}

func TestAuth_V3KeyAsQueryParam(t *testing.T) {
	c, fake := newTestClient(t, "v3key", nil)
	_, err := c.Genres(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "v3key", fake.lastKey.Load())
	assert.Equal(t, "", fake.lastAuth.Load())
}

func TestAuth_V4TokenAsBearer(t *testing.T) {
	c, fake := newTestClient(t, "eyJhbGciOiJIUzI1NiJ9.token", nil)
	_, err := c.Genres(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer eyJhbGciOiJIUzI1NiJ9.token", fake.lastAuth.Load())
	assert.Equal(t, "", fake.lastKey.Load())
}

func TestTopRated(t *testing.T) {
	c, fake := newTestClient(t, "v3key", nil)
	ctx := context.Background()

	ids, err := c.TopRated(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{238, 278}, ids)

	hits := fake.hits.Load()
	_, err = c.TopRated(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, hits, fake.hits.Load(), "listing served from TTL cache")

	ids, err = c.TopRated(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = c.TopRated(ctx, 0)
	assert.Error(t, err)
}

func TestSearchMovies(t *testing.T) {
	c, _ := newTestClient(t, "v3key", nil)

	ids, err := c.SearchMovies(context.Background(), " Heat ")
	require.NoError(t, err)
	assert.Equal(t, []int64{949, 86295}, ids)

	ids, err = c.SearchMovies(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestGenres(t *testing.T) {
	c, _ := newTestClient(t, "v3key", nil)

	names, err := c.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Action", "Comedy"}, names)
}
