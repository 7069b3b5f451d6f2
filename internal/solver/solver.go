// Package solver proposes legal next moves for a movie-linking game: a
// per-game Session validates moves and a Strategy aggregates index queries
// across the win, neutral and lose genres.
package solver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/metrics"
	"github.com/ajitpratap0/cinelink/internal/models"
)

// ErrInvalidConfig is returned by New for an unusable Config.
var ErrInvalidConfig = errors.New("invalid solver config")

// Graph is the index surface the solver reads. *graph.Index satisfies it.
type Graph interface {
	MovieSource
	CandidateFinder
}

// Config parameterizes a Solver for one game.
type Config struct {
	WinGenre       string
	LoseGenre      string
	Strategy       Strategy // nil selects Greedy
	MaxSuggestions int
	MaxLinks       MaxLinks
}

// Solver holds the move state of one game. It is not safe for concurrent use.
type Solver struct {
	graph          Graph
	strategy       Strategy
	session        *Session
	winGenre       string
	loseGenre      string
	maxSuggestions int
	logger         *slog.Logger
}

// New creates a solver over g.
func New(g Graph, cfg Config, logger *slog.Logger) (*Solver, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is required", ErrInvalidConfig)
	}
	if cfg.WinGenre == "" || cfg.LoseGenre == "" {
		return nil, fmt.Errorf("%w: win and lose genres are required", ErrInvalidConfig)
	}
	if cfg.MaxSuggestions < 0 {
		return nil, fmt.Errorf("%w: max suggestions must be >= 0", ErrInvalidConfig)
	}
	if cfg.MaxLinks != Unlimited && cfg.MaxLinks <= 0 {
		return nil, fmt.Errorf("%w: max links must be positive or unlimited", ErrInvalidConfig)
	}
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = Greedy{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Solver{
		graph:          g,
		strategy:       strategy,
		session:        NewSession(g, cfg.MaxLinks),
		winGenre:       cfg.WinGenre,
		loseGenre:      cfg.LoseGenre,
		maxSuggestions: cfg.MaxSuggestions,
		logger:         logger,
	}, nil
}

// Start records the opening movie. No frequency is counted for it.
func (s *Solver) Start(movie models.Movie) {
	s.session.CommitMove(nil, movie, false)
}

// NextMoveCandidates returns the IDs of the movies the strategy proposes
// after current.
func (s *Solver) NextMoveCandidates(current models.Movie) graph.IDSet {
	metrics.Inc(metrics.SuggestTotal)
	ids := s.strategy.Suggest(s.graph, Turn{
		Current:   current,
		WinGenre:  s.winGenre,
		LoseGenre: s.loseGenre,
		Limit:     s.maxSuggestions,
		IsValid:   s.session.IsValid,
	})
	s.logger.Debug("solver: candidates computed",
		"movie_id", current.ID, "win", s.winGenre, "lose", s.loseGenre, "count", len(ids))
	return ids
}

// FlipWinLoseGenres swaps the win and lose genres.
func (s *Solver) FlipWinLoseGenres() {
	s.winGenre, s.loseGenre = s.loseGenre, s.winGenre
}

// Genres returns the current win and lose genres.
func (s *Solver) Genres() (win, lose string) {
	return s.winGenre, s.loseGenre
}

// IsValid reports whether candidateID is a legal move from currentID.
func (s *Solver) IsValid(currentID, candidateID int64) bool {
	return s.session.IsValid(currentID, candidateID)
}

// CommitMove records chosen as played after previous.
func (s *Solver) CommitMove(previous *models.Movie, chosen models.Movie, updateFrequency bool) {
	s.session.CommitMove(previous, chosen, updateFrequency)
}

// Session exposes the game's move state.
func (s *Solver) Session() *Session { return s.session }

// Strategy returns the strategy in use.
func (s *Solver) Strategy() Strategy { return s.strategy }
