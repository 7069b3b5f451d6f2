// Package game runs two-player movie-linking games on top of the solver.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/metrics"
	"github.com/ajitpratap0/cinelink/internal/models"
	"github.com/ajitpratap0/cinelink/internal/solver"
)

var (
	// ErrNotFound is returned when a game ID is not registered.
	ErrNotFound = errors.New("game not found")
	// ErrUnknownMovie is returned for a movie ID missing from the index.
	ErrUnknownMovie = errors.New("unknown movie")
	// ErrGameOver is returned for moves after the game has ended.
	ErrGameOver = errors.New("game is over")
)

// DefaultGraceTurns is how many opening turns pass before link usage counts
// against a person's cap.
const DefaultGraceTurns = 4

// Options configures a new game.
type Options struct {
	WinGenre       string
	LoseGenre      string
	MaxLinks       solver.MaxLinks
	MaxSuggestions int
	Strategy       solver.Strategy

	// GraceTurns is how many opening turns pass before link usage counts.
	// Zero counts from the first move; negative selects DefaultGraceTurns.
	GraceTurns int
}

// Move is one entry of the game history.
type Move struct {
	Turn      int       `json:"turn"`
	Player    int       `json:"player"`
	Skipped   bool      `json:"skipped,omitempty"`
	MovieID   int64     `json:"movie_id,omitempty"`
	MovieName string    `json:"movie_name,omitempty"`
	Validated bool      `json:"validated,omitempty"`
	PlayedAt  time.Time `json:"played_at"`
}

// State is a point-in-time view of a game.
type State struct {
	ID        string       `json:"id"`
	Turn      int          `json:"turn"`
	Player    int          `json:"player"`
	Current   models.Movie `json:"current"`
	WinGenre  string       `json:"win_genre"`
	LoseGenre string       `json:"lose_genre"`
	MaxLinks  string       `json:"max_links"`
	Strategy  string       `json:"strategy"`
	Used      int          `json:"used"`
	Over      bool         `json:"over"`
	History   []Move       `json:"history"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Game is one running match. It is safe for concurrent use.
type Game struct {
	mu        sync.Mutex
	id        string
	graph     solver.Graph
	solver    *solver.Solver
	current   models.Movie
	turn      int
	grace     int
	over      bool
	history   []Move
	createdAt time.Time
	updatedAt time.Time
	logger    *slog.Logger
}

// New starts a game at the movie startID.
func New(id string, g solver.Graph, startID int64, opts Options, logger *slog.Logger) (*Game, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if g == nil {
		return nil, fmt.Errorf("%w: graph is required", solver.ErrInvalidConfig)
	}
	start, ok := g.Movie(startID)
	if !ok {
		return nil, fmt.Errorf("starting movie %d: %w", startID, ErrUnknownMovie)
	}
	s, err := solver.New(g, solver.Config{
		WinGenre:       opts.WinGenre,
		LoseGenre:      opts.LoseGenre,
		Strategy:       opts.Strategy,
		MaxSuggestions: opts.MaxSuggestions,
		MaxLinks:       opts.MaxLinks,
	}, logger)
	if err != nil {
		return nil, err
	}
	grace := opts.GraceTurns
	if grace < 0 {
		grace = DefaultGraceTurns
	}
	s.Start(start)
	metrics.Inc(metrics.GamesStarted)
	logger.Info("game: started", "game_id", id, "movie", start.Label(),
		"win", opts.WinGenre, "lose", opts.LoseGenre, "max_links", opts.MaxLinks.String())
	now := time.Now().UTC()
	return &Game{
		id:        id,
		graph:     g,
		solver:    s,
		current:   start,
		grace:     grace,
		createdAt: now,
		updatedAt: now,
		logger:    logger,
	}, nil
}

// ID returns the game identifier.
func (g *Game) ID() string { return g.id }

func playerFor(turn int) int { return turn%2 + 1 }

// Candidates returns the proposed next moves sorted by name. An empty result
// ends the game.
func (g *Game) Candidates() ([]models.Movie, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over {
		return nil, ErrGameOver
	}
	g.updatedAt = time.Now().UTC()
	ids := g.solver.NextMoveCandidates(g.current)
	movies := make([]models.Movie, 0, len(ids))
	for _, id := range ids.Sorted() {
		if m, ok := g.graph.Movie(id); ok {
			movies = append(movies, m)
		}
	}
	if len(movies) == 0 {
		g.over = true
		g.logger.Info("game: no candidates left", "game_id", g.id, "turn", g.turn)
		return nil, nil
	}
	graph.SortMovies(movies)
	return movies, nil
}

// Play records movieID as the current player's move. Any indexed movie is
// accepted; Validated reports whether it was a legal link from the previous
// movie under the session rules.
func (g *Game) Play(movieID int64) (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over {
		return Move{}, ErrGameOver
	}
	chosen, ok := g.graph.Movie(movieID)
	if !ok {
		return Move{}, fmt.Errorf("movie %d: %w", movieID, ErrUnknownMovie)
	}
	valid := g.solver.IsValid(g.current.ID, chosen.ID)
	previous := g.current
	g.solver.CommitMove(&previous, chosen, g.turn >= g.grace)

	mv := Move{
		Turn:      g.turn,
		Player:    playerFor(g.turn),
		MovieID:   chosen.ID,
		MovieName: chosen.Name,
		Validated: valid,
		PlayedAt:  time.Now().UTC(),
	}
	g.history = append(g.history, mv)
	g.updatedAt = mv.PlayedAt
	g.current = chosen
	g.solver.FlipWinLoseGenres()
	g.turn++
	metrics.Inc(metrics.MovesPlayed)
	g.logger.Debug("game: move played", "game_id", g.id, "turn", mv.Turn, "movie", chosen.Label(), "validated", valid)
	return mv, nil
}

// Skip passes the turn. The win and lose genres swap as after any move.
func (g *Game) Skip() (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over {
		return Move{}, ErrGameOver
	}
	mv := Move{
		Turn:     g.turn,
		Player:   playerFor(g.turn),
		Skipped:  true,
		PlayedAt: time.Now().UTC(),
	}
	g.history = append(g.history, mv)
	g.updatedAt = mv.PlayedAt
	g.solver.FlipWinLoseGenres()
	g.turn++
	metrics.Inc(metrics.TurnsSkipped)
	return mv, nil
}

// End marks the game over.
func (g *Game) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.over = true
	g.updatedAt = time.Now().UTC()
}

// Activity reports whether the game is over and when it last changed.
func (g *Game) Activity() (over bool, updatedAt time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.updatedAt
}

// State returns a snapshot of the game.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	win, lose := g.solver.Genres()
	history := make([]Move, len(g.history))
	copy(history, g.history)
	return State{
		ID:        g.id,
		Turn:      g.turn,
		Player:    playerFor(g.turn),
		Current:   g.current.Clone(),
		WinGenre:  win,
		LoseGenre: lose,
		MaxLinks:  g.solver.Session().MaxLinks().String(),
		Strategy:  g.solver.Strategy().Name(),
		Used:      g.solver.Session().UsedCount(),
		Over:      g.over,
		History:   history,
		CreatedAt: g.createdAt,
		UpdatedAt: g.updatedAt,
	}
}
