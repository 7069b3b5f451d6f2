package models

import "strings"

// Person is a cast or crew member. Two persons are equal only when both the
// ID and the name match, so Person is usable directly as a map key.
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie is a node in the connectivity graph. Movies are linked implicitly
// through the people they share.
type Movie struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	ReleaseDate string   `json:"release_date,omitempty"` // ISO date or empty
	Genres      []string `json:"genres"`
	People      []Person `json:"people"` // set semantics, source order kept
}

// NewMovie builds a Movie and collapses duplicate people and genres.
func NewMovie(id int64, name, releaseDate string, genres []string, people []Person) Movie {
	m := Movie{
		ID:          id,
		Name:        name,
		ReleaseDate: releaseDate,
		Genres:      genres,
		People:      people,
	}
	m.Normalize()
	return m
}

// Normalize removes duplicate people and duplicate or empty genres in place,
// keeping the first occurrence of each.
func (m *Movie) Normalize() {
	if len(m.People) > 0 {
		seen := make(map[Person]struct{}, len(m.People))
		people := make([]Person, 0, len(m.People))
		for _, p := range m.People {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			people = append(people, p)
		}
		m.People = people
	}
	if len(m.Genres) > 0 {
		seen := make(map[string]struct{}, len(m.Genres))
		genres := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			if g == "" {
				continue
			}
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			genres = append(genres, g)
		}
		m.Genres = genres
	}
}

// Clone returns a deep copy so the caller can't mutate stored slices.
func (m Movie) Clone() Movie {
	out := m
	if m.Genres != nil {
		out.Genres = make([]string, len(m.Genres))
		copy(out.Genres, m.Genres)
	}
	if m.People != nil {
		out.People = make([]Person, len(m.People))
		copy(out.People, m.People)
	}
	return out
}

// HasGenre reports whether the movie is tagged with genre.
func (m Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// SharedPeople returns the people appearing in both movies, in m's order.
func (m Movie) SharedPeople(other Movie) []Person {
	if len(m.People) == 0 || len(other.People) == 0 {
		return nil
	}
	theirs := make(map[Person]struct{}, len(other.People))
	for _, p := range other.People {
		theirs[p] = struct{}{}
	}
	var shared []Person
	for _, p := range m.People {
		if _, ok := theirs[p]; ok {
			shared = append(shared, p)
		}
	}
	return shared
}

// Year returns the four-digit year of the release date, or "" when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Label renders "Name (release date)" for menus and logs.
func (m Movie) Label() string {
	if m.ReleaseDate == "" {
		return m.Name
	}
	return m.Name + " (" + m.ReleaseDate + ")"
}

// NameMatches is the case-insensitive exact comparison used for title lookup.
func (m Movie) NameMatches(name string) bool {
	return strings.EqualFold(m.Name, name)
}

// IndexStats holds summary statistics about the connectivity index.
type IndexStats struct {
	Movies          int            `json:"movies"`
	People          int            `json:"people"`
	PersonGenreKeys int            `json:"person_genre_keys"`
	ByGenre         map[string]int `json:"by_genre"`
}
