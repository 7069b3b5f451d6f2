// Package tmdb fetches movie records from The Movie Database REST API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ajitpratap0/cinelink/internal/models"
)

// ErrUnavailable is returned when a movie cannot be fetched or is incomplete.
var ErrUnavailable = errors.New("movie unavailable")

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	Language   string
	CastLimit  int
	CrewLimit  int
	Timeout    time.Duration
	CacheSize  int
	ListingTTL time.Duration
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Language == "" {
		o.Language = "en-US"
	}
	if o.CastLimit <= 0 {
		o.CastLimit = 10
	}
	if o.CrewLimit <= 0 {
		o.CrewLimit = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 4096
	}
	if o.ListingTTL <= 0 {
		o.ListingTTL = 10 * time.Minute
	}
}

// Client is a TMDB API client. It is safe for concurrent use.
type Client struct {
	opts     Options
	client   *http.Client
	details  *lru.Cache[int64, models.Movie]
	listings *cache.Cache
	group    singleflight.Group
	logger   *slog.Logger
}

// NewClient creates a client. An API key is required.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("tmdb: api key is required")
	}
	opts.applyDefaults()
	details, err := lru.New[int64, models.Movie](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("tmdb: creating detail cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		details:  details,
		listings: cache.New(opts.ListingTTL, 2*opts.ListingTTL),
		logger:   logger,
	}, nil
}

type genreDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type movieDetailsResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	ReleaseDate string     `json:"release_date"`
	Genres      []genreDTO `json:"genres"`
}

type creditDTO struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
}

type creditsResponse struct {
	Cast []creditDTO `json:"cast"`
	Crew []creditDTO `json:"crew"`
}

type listingResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID int64 `json:"id"`
	} `json:"results"`
	TotalPages int `json:"total_pages"`
}

type genreListResponse struct {
	Genres []genreDTO `json:"genres"`
}

// FetchMovie returns the movie with its genres and the leading cast and crew.
// Repeated and concurrent calls for the same ID share one fetch.
func (c *Client) FetchMovie(ctx context.Context, id int64) (models.Movie, error) {
	if m, ok := c.details.Get(id); ok {
		return m.Clone(), nil
	}
	val, err, _ := c.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return c.fetchMovie(ctx, id)
	})
	if err != nil {
		return models.Movie{}, err
	}
	return val.(models.Movie).Clone(), nil
}

func (c *Client) fetchMovie(ctx context.Context, id int64) (models.Movie, error) {
	var details movieDetailsResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return models.Movie{}, fmt.Errorf("fetching movie %d: %w", id, err)
	}
	if details.Title == "" {
		return models.Movie{}, fmt.Errorf("movie %d has no title: %w", id, ErrUnavailable)
	}

	var credits creditsResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &credits); err != nil {
		return models.Movie{}, fmt.Errorf("fetching credits for %d: %w", id, err)
	}

	genres := make([]string, 0, len(details.Genres))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}
	people := make([]models.Person, 0, c.opts.CastLimit+c.opts.CrewLimit)
	people = appendCredits(people, credits.Cast, c.opts.CastLimit)
	people = appendCredits(people, credits.Crew, c.opts.CrewLimit)

	movieID := details.ID
	if movieID == 0 {
		movieID = id
	}
	m := models.NewMovie(movieID, details.Title, details.ReleaseDate, genres, people)
	c.details.Add(id, m)
	c.logger.Debug("tmdb: fetched movie", "id", id, "title", m.Name, "people", len(m.People))
	return m, nil
}

// appendCredits takes the first limit credits and drops those without an ID.
func appendCredits(dst []models.Person, credits []creditDTO, limit int) []models.Person {
	if len(credits) > limit {
		credits = credits[:limit]
	}
	for _, cr := range credits {
		if cr.ID == nil || *cr.ID == 0 {
			continue
		}
		dst = append(dst, models.Person{ID: *cr.ID, Name: cr.Name})
	}
	return dst
}

// TopRated returns the movie IDs on one page of the top-rated listing.
func (c *Client) TopRated(ctx context.Context, page int) ([]int64, error) {
	if page < 1 {
		return nil, fmt.Errorf("tmdb: page must be >= 1, got %d", page)
	}
	q := url.Values{"page": {strconv.Itoa(page)}}
	return c.listing(ctx, "/movie/top_rated", q)
}

// SearchMovies returns the IDs of movies whose title matches query.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := url.Values{"query": {query}, "include_adult": {"false"}}
	return c.listing(ctx, "/search/movie", q)
}

func (c *Client) listing(ctx context.Context, path string, q url.Values) ([]int64, error) {
	key := path + "?" + q.Encode()
	if v, ok := c.listings.Get(key); ok {
		return append([]int64(nil), v.([]int64)...), nil
	}
	var resp listingResponse
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	ids := make([]int64, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	c.listings.SetDefault(key, ids)
	return append([]int64(nil), ids...), nil
}

// Genres returns the names of TMDB's movie genres.
func (c *Client) Genres(ctx context.Context) ([]string, error) {
	const key = "/genre/movie/list"
	if v, ok := c.listings.Get(key); ok {
		return append([]string(nil), v.([]string)...), nil
	}
	var resp genreListResponse
	if err := c.get(ctx, key, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}
	names := make([]string, 0, len(resp.Genres))
	for _, g := range resp.Genres {
		names = append(names, g.Name)
	}
	c.listings.SetDefault(key, names)
	return append([]string(nil), names...), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("language", c.opts.Language)
	bearer := isBearerToken(c.opts.APIKey)
	if !bearer {
		q.Set("api_key", c.opts.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling TMDB API: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("TMDB API returned %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(body)), ErrUnavailable)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// isBearerToken reports whether key looks like a v4 read access token.
func isBearerToken(key string) bool {
	return strings.HasPrefix(key, "eyJ")
}
