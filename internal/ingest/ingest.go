// Package ingest fills the connectivity index from a movie source.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/metrics"
	"github.com/ajitpratap0/cinelink/internal/models"
)

// Source fetches movies and movie listings. *tmdb.Client satisfies it.
type Source interface {
	FetchMovie(ctx context.Context, id int64) (models.Movie, error)
	TopRated(ctx context.Context, page int) ([]int64, error)
	SearchMovies(ctx context.Context, query string) ([]int64, error)
}

// Report summarizes an ingest run.
type Report struct {
	Pages    int     `json:"pages"`
	Added    int     `json:"added"`
	Existing int     `json:"existing"`
	Skipped  int     `json:"skipped"`
	AddedIDs []int64 `json:"added_ids,omitempty"`
}

func (r Report) String() string {
	return fmt.Sprintf("pages=%d added=%d existing=%d skipped=%d", r.Pages, r.Added, r.Existing, r.Skipped)
}

// Ingester fetches movies and inserts them into an index.
type Ingester struct {
	source      Source
	index       *graph.Index
	concurrency int
	logger      *slog.Logger
}

// New creates an ingester. concurrency bounds parallel fetches; values below 1
// fetch sequentially.
func New(source Source, index *graph.Index, concurrency int, logger *slog.Logger) *Ingester {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{source: source, index: index, concurrency: concurrency, logger: logger}
}

type fetchResult struct {
	movie    models.Movie
	existing bool
	err      error
}

// fetchAll fetches ids with bounded concurrency. Results keep the order of
// ids. Per-movie failures are recorded in the result, not returned; only
// context cancellation aborts the batch.
func (in *Ingester) fetchAll(ctx context.Context, ids []int64) ([]fetchResult, error) {
	results := make([]fetchResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)
	for i, id := range ids {
		if in.index.Contains(id) {
			results[i] = fetchResult{movie: models.Movie{ID: id}, existing: true}
			continue
		}
		g.Go(func() error {
			m, err := in.source.FetchMovie(gctx, id)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = fetchResult{movie: m, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// record applies one fetch result to the index and the report. It reports
// whether the result counts as a successful fetch.
func (in *Ingester) record(r fetchResult, report *Report) bool {
	switch {
	case r.existing:
		report.Existing++
		return true
	case r.err != nil:
		report.Skipped++
		metrics.Inc(metrics.FetchFailures)
		if errors.Is(r.err, context.Canceled) {
			return false
		}
		in.logger.Warn("ingest: skipping movie", "error", r.err)
		return false
	case in.index.Insert(r.movie):
		report.Added++
		report.AddedIDs = append(report.AddedIDs, r.movie.ID)
		metrics.Inc(metrics.MoviesIngested)
		return true
	default:
		report.Existing++
		return true
	}
}

// Populate pages through the top-rated listing until count movies have been
// fetched or indexed already, or a page comes back empty or fails. Movies
// are inserted in listing order.
func (in *Ingester) Populate(ctx context.Context, count int) (Report, error) {
	var report Report
	if count <= 0 {
		return report, nil
	}
	done := 0
	for page := 1; done < count; page++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ids, err := in.source.TopRated(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			in.logger.Warn("ingest: listing failed, stopping", "page", page, "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}
		report.Pages++

		// Fetch in chunks no larger than what could still count, so a failed
		// fetch is made up from the same page before moving on.
		for len(ids) > 0 && done < count {
			chunk := ids
			if remaining := count - done; len(chunk) > remaining {
				chunk = chunk[:remaining]
			}
			ids = ids[len(chunk):]
			results, err := in.fetchAll(ctx, chunk)
			if err != nil {
				return report, fmt.Errorf("fetching page %d: %w", page, err)
			}
			for _, r := range results {
				if in.record(r, &report) {
					done++
				}
			}
		}
		in.logger.Info("ingest: processed page", "page", page, "total_movies", in.index.Len())
	}
	return report, nil
}

// AddByTitle searches for title and inserts every match not yet indexed.
func (in *Ingester) AddByTitle(ctx context.Context, title string) (Report, error) {
	var report Report
	ids, err := in.source.SearchMovies(ctx, title)
	if err != nil {
		return report, fmt.Errorf("searching %q: %w", title, err)
	}
	report.Pages = 1
	results, err := in.fetchAll(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("fetching matches for %q: %w", title, err)
	}
	for _, r := range results {
		in.record(r, &report)
	}
	in.logger.Info("ingest: added by title", "title", title, "report", report.String())
	return report, nil
}
