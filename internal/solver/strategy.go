package solver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
)

// ErrUnknownStrategy is returned for a strategy name with no implementation.
var ErrUnknownStrategy = errors.New("unknown strategy")

// StrategyGreedy is the config name of the Greedy strategy.
const StrategyGreedy = "greedy"

// CandidateFinder is the index query a strategy builds on.
type CandidateFinder interface {
	CandidatesSharingPersonAndGenre(movie models.Movie, genre string, isValid graph.ValidFunc) graph.IDSet
}

// Turn is everything a strategy needs to propose the next moves.
type Turn struct {
	Current   models.Movie
	WinGenre  string
	LoseGenre string
	Limit     int // suggestion cap for non-winning moves
	IsValid   graph.ValidFunc
}

// Strategy proposes legal next moves for a turn.
type Strategy interface {
	Name() string
	Suggest(finder CandidateFinder, turn Turn) graph.IDSet
}

// ParseStrategy maps a config name to its strategy. An empty name selects
// Greedy; anything unrecognized is an error.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyGreedy:
		return Greedy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Greedy always surfaces every winning move, then fills up to Limit further
// suggestions from the current movie's neutral genres, falling back to the
// losing genre only when the neutral genres come up short.
type Greedy struct{}

// Name implements Strategy.
func (Greedy) Name() string { return StrategyGreedy }

// Suggest implements Strategy. The neutral-genre pass stops once Limit is
// reached but does not trim the genre that crossed it; the losing-genre
// fallback is capped exactly, taking the lowest IDs first, and skips IDs
// already proposed as winners so they do not use up the cap.
func (Greedy) Suggest(finder CandidateFinder, turn Turn) graph.IDSet {
	cur := turn.Current
	winners := finder.CandidatesSharingPersonAndGenre(cur, turn.WinGenre, turn.IsValid)

	others := make(graph.IDSet)
	for _, genre := range cur.Genres {
		if genre == turn.WinGenre || genre == turn.LoseGenre {
			continue
		}
		if len(others) >= turn.Limit {
			break
		}
		others.Union(finder.CandidatesSharingPersonAndGenre(cur, genre, turn.IsValid))
	}

	if budget := turn.Limit - len(others); budget > 0 {
		losers := finder.CandidatesSharingPersonAndGenre(cur, turn.LoseGenre, turn.IsValid)
		for _, id := range losers.Sorted() {
			if budget == 0 {
				break
			}
			if others.Has(id) || winners.Has(id) {
				continue
			}
			others.Add(id)
			budget--
		}
	}

	winners.Union(others)
	return winners
}
