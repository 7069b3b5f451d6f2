// Package graph holds the movie connectivity index: every known movie plus
// the derived person and (person, genre) lookups that make genre-constrained
// neighbour queries cheap.
package graph

import (
	"sort"
	"sync"

	"github.com/ajitpratap0/cinelink/internal/models"
)

// ValidFunc decides whether moving from the current movie to a candidate is
// allowed. The index calls it outside its lock, so it may read the index.
type ValidFunc func(currentID, candidateID int64) bool

// AlwaysValid accepts every candidate.
func AlwaysValid(_, _ int64) bool { return true }

// personGenre keys the (person, genre) index.
type personGenre struct {
	PersonID int64
	Genre    string
}

// Index is the shared, read-mostly movie graph. It is safe for concurrent
// use: inserts take the write lock, queries take the read lock.
type Index struct {
	mu                sync.RWMutex
	movies            map[int64]models.Movie
	personMovies      map[int64]IDSet
	personGenreMovies map[personGenre]IDSet
}

// New creates an empty index.
func New() *Index {
	return &Index{
		movies:            make(map[int64]models.Movie),
		personMovies:      make(map[int64]IDSet),
		personGenreMovies: make(map[personGenre]IDSet),
	}
}

// Insert adds movie and updates both derived indices. Re-inserting a known
// movie ID changes nothing. It reports whether the movie was new.
func (ix *Index) Insert(movie models.Movie) bool {
	movie = movie.Clone()
	movie.Normalize()

	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.insertLocked(movie)
}

func (ix *Index) insertLocked(movie models.Movie) bool {
	if _, ok := ix.movies[movie.ID]; ok {
		return false
	}
	ix.movies[movie.ID] = movie
	for _, p := range movie.People {
		set, ok := ix.personMovies[p.ID]
		if !ok {
			set = make(IDSet)
			ix.personMovies[p.ID] = set
		}
		set.Add(movie.ID)
		for _, g := range movie.Genres {
			key := personGenre{PersonID: p.ID, Genre: g}
			gs, ok := ix.personGenreMovies[key]
			if !ok {
				gs = make(IDSet)
				ix.personGenreMovies[key] = gs
			}
			gs.Add(movie.ID)
		}
	}
	return true
}

// Movie returns a copy of the movie with the given ID.
func (ix *Index) Movie(id int64) (models.Movie, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	m, ok := ix.movies[id]
	if !ok {
		return models.Movie{}, false
	}
	return m.Clone(), true
}

// Contains reports whether id is indexed.
func (ix *Index) Contains(id int64) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.movies[id]
	return ok
}

// Len returns the number of indexed movies.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.movies)
}

// LookupByExactName returns every movie whose name equals name, ignoring
// case. Results are ordered by name, release date, then ID.
func (ix *Index) LookupByExactName(name string) []models.Movie {
	ix.mu.RLock()
	var out []models.Movie
	for _, m := range ix.movies {
		if m.NameMatches(name) {
			out = append(out, m.Clone())
		}
	}
	ix.mu.RUnlock()

	SortMovies(out)
	return out
}

// MoviesForPerson returns the IDs of every movie personID appears in.
func (ix *Index) MoviesForPerson(personID int64) []int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.personMovies[personID].Sorted()
}

// CandidatesSharingPersonAndGenre returns the movies tagged with genre that
// share at least one person with movie. The movie itself and candidates
// rejected by isValid are excluded. A genre nobody in movie has worked in
// yields an empty set.
func (ix *Index) CandidatesSharingPersonAndGenre(movie models.Movie, genre string, isValid ValidFunc) IDSet {
	found := make(IDSet)
	ix.mu.RLock()
	for _, p := range movie.People {
		for id := range ix.personGenreMovies[personGenre{PersonID: p.ID, Genre: genre}] {
			if id != movie.ID {
				found.Add(id)
			}
		}
	}
	ix.mu.RUnlock()

	if isValid == nil {
		return found
	}
	for id := range found {
		if !isValid(movie.ID, id) {
			delete(found, id)
		}
	}
	return found
}

// Stats summarizes the index.
func (ix *Index) Stats() models.IndexStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	byGenre := make(map[string]int)
	for _, m := range ix.movies {
		for _, g := range m.Genres {
			byGenre[g]++
		}
	}
	return models.IndexStats{
		Movies:          len(ix.movies),
		People:          len(ix.personMovies),
		PersonGenreKeys: len(ix.personGenreMovies),
		ByGenre:         byGenre,
	}
}

// SortMovies orders movies by name, release date, then ID.
func SortMovies(movies []models.Movie) {
	sort.Slice(movies, func(i, j int) bool {
		a, b := movies[i], movies[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.ReleaseDate != b.ReleaseDate {
			return a.ReleaseDate < b.ReleaseDate
		}
		return a.ID < b.ID
	})
}
