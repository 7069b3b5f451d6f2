package solver

import (
	"github.com/ajitpratap0/cinelink/internal/models"
)

// MovieSource resolves movie IDs. *graph.Index satisfies it.
type MovieSource interface {
	Movie(id int64) (models.Movie, bool)
}

// Session is the per-game move state: which movies have been played and how
// often each person has served as a link. It is owned by a single game and is
// not safe for concurrent use.
type Session struct {
	movies    MovieSource
	maxLinks  MaxLinks
	used      map[int64]struct{}
	frequency map[models.Person]int
}

// NewSession creates an empty session over movies.
func NewSession(movies MovieSource, maxLinks MaxLinks) *Session {
	return &Session{
		movies:    movies,
		maxLinks:  maxLinks,
		used:      make(map[int64]struct{}),
		frequency: make(map[models.Person]int),
	}
}

// IsValid reports whether candidateID is a legal move from currentID. A movie
// may be played once per game, and at least one person shared by the two
// movies must still be under the link cap.
func (s *Session) IsValid(currentID, candidateID int64) bool {
	if _, used := s.used[candidateID]; used {
		return false
	}
	current, ok := s.movies.Movie(currentID)
	if !ok {
		return false
	}
	candidate, ok := s.movies.Movie(candidateID)
	if !ok {
		return false
	}
	for _, p := range current.SharedPeople(candidate) {
		if s.maxLinks.Allows(s.frequency[p]) {
			return true
		}
	}
	return false
}

// CommitMove records chosen as played. When previous is set and
// updateFrequency is true, every person linking the two movies is counted.
func (s *Session) CommitMove(previous *models.Movie, chosen models.Movie, updateFrequency bool) {
	s.used[chosen.ID] = struct{}{}
	if previous == nil || !updateFrequency {
		return
	}
	for _, p := range previous.SharedPeople(chosen) {
		s.frequency[p]++
	}
}

// Used reports whether id has been played.
func (s *Session) Used(id int64) bool {
	_, ok := s.used[id]
	return ok
}

// UsedCount returns how many distinct movies have been played.
func (s *Session) UsedCount() int { return len(s.used) }

// Frequency returns how many times p has linked two played movies.
func (s *Session) Frequency(p models.Person) int { return s.frequency[p] }

// MaxLinks returns the session's link cap.
func (s *Session) MaxLinks() MaxLinks { return s.maxLinks }
