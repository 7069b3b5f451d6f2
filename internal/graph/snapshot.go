package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ajitpratap0/cinelink/internal/models"
)

// ErrInconsistentSnapshot is returned by Restore when the derived indices in
// a snapshot disagree with its movies.
var ErrInconsistentSnapshot = errors.New("inconsistent index snapshot")

// Snapshot is the persisted form of an Index: exactly the movie table and
// the two derived indices. Slices are sorted so equal indices produce equal
// snapshots.
type Snapshot struct {
	Movies            []models.Movie      `json:"movies"`
	PersonMovies      []PersonMovies      `json:"person_movies"`
	PersonGenreMovies []PersonGenreMovies `json:"person_genre_movies"`
}

// PersonMovies is one entry of the person → movies index.
type PersonMovies struct {
	PersonID int64   `json:"person_id"`
	MovieIDs []int64 `json:"movie_ids"`
}

// PersonGenreMovies is one entry of the (person, genre) → movies index.
type PersonGenreMovies struct {
	PersonID int64   `json:"person_id"`
	Genre    string  `json:"genre"`
	MovieIDs []int64 `json:"movie_ids"`
}

// Snapshot captures the current state of the index.
func (ix *Index) Snapshot() *Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	s := &Snapshot{
		Movies:            make([]models.Movie, 0, len(ix.movies)),
		PersonMovies:      make([]PersonMovies, 0, len(ix.personMovies)),
		PersonGenreMovies: make([]PersonGenreMovies, 0, len(ix.personGenreMovies)),
	}
	for _, m := range ix.movies {
		s.Movies = append(s.Movies, m.Clone())
	}
	sort.Slice(s.Movies, func(i, j int) bool { return s.Movies[i].ID < s.Movies[j].ID })

	for pid, set := range ix.personMovies {
		s.PersonMovies = append(s.PersonMovies, PersonMovies{PersonID: pid, MovieIDs: set.Sorted()})
	}
	sort.Slice(s.PersonMovies, func(i, j int) bool { return s.PersonMovies[i].PersonID < s.PersonMovies[j].PersonID })

	for key, set := range ix.personGenreMovies {
		s.PersonGenreMovies = append(s.PersonGenreMovies, PersonGenreMovies{
			PersonID: key.PersonID,
			Genre:    key.Genre,
			MovieIDs: set.Sorted(),
		})
	}
	sort.Slice(s.PersonGenreMovies, func(i, j int) bool {
		a, b := s.PersonGenreMovies[i], s.PersonGenreMovies[j]
		if a.PersonID != b.PersonID {
			return a.PersonID < b.PersonID
		}
		return a.Genre < b.Genre
	})
	return s
}

// Restore rebuilds an index from the three snapshot structures alone. The
// derived indices are taken as stored and then checked against the movies.
func Restore(s *Snapshot) (*Index, error) {
	ix := New()
	if s == nil {
		return ix, nil
	}
	for _, m := range s.Movies {
		if _, dup := ix.movies[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate movie %d", ErrInconsistentSnapshot, m.ID)
		}
		ix.movies[m.ID] = m.Clone()
	}
	for _, pm := range s.PersonMovies {
		ix.personMovies[pm.PersonID] = NewIDSet(pm.MovieIDs...)
	}
	for _, pg := range s.PersonGenreMovies {
		ix.personGenreMovies[personGenre{PersonID: pg.PersonID, Genre: pg.Genre}] = NewIDSet(pg.MovieIDs...)
	}
	if err := ix.Verify(); err != nil {
		return nil, err
	}
	return ix, nil
}

// FromMovies builds an index by inserting movies in order. Backends that
// only persist movies and their people use it to derive the indices.
func FromMovies(movies []models.Movie) *Index {
	ix := New()
	for i := range movies {
		ix.Insert(movies[i])
	}
	return ix
}

// Verify checks that both derived indices hold exactly the pairs implied by
// the movie table.
func (ix *Index) Verify() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	expected := New()
	for _, m := range ix.movies {
		expected.insertLocked(m)
	}

	if len(expected.personMovies) != len(ix.personMovies) {
		return fmt.Errorf("%w: person index has %d people, movies imply %d",
			ErrInconsistentSnapshot, len(ix.personMovies), len(expected.personMovies))
	}
	for pid, want := range expected.personMovies {
		if !sameSet(want, ix.personMovies[pid]) {
			return fmt.Errorf("%w: person %d movie set mismatch", ErrInconsistentSnapshot, pid)
		}
	}

	if len(expected.personGenreMovies) != len(ix.personGenreMovies) {
		return fmt.Errorf("%w: person/genre index has %d keys, movies imply %d",
			ErrInconsistentSnapshot, len(ix.personGenreMovies), len(expected.personGenreMovies))
	}
	for key, want := range expected.personGenreMovies {
		if !sameSet(want, ix.personGenreMovies[key]) {
			return fmt.Errorf("%w: person %d genre %q movie set mismatch",
				ErrInconsistentSnapshot, key.PersonID, key.Genre)
		}
	}
	return nil
}

func sameSet(a, b IDSet) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b.Has(id) {
			return false
		}
	}
	return true
}
