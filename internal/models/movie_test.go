package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerson_EqualityUsesIDAndName(t *testing.T) {
	a := Person{ID: 1, Name: "Chris Evans"}
	b := Person{ID: 2, Name: "Chris Evans"}
	c := Person{ID: 1, Name: "Chris Evans"}

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)

	set := map[Person]int{a: 1}
	_, ok := set[b]
	assert.False(t, ok, "same name with a different ID must be a different key")
	_, ok = set[c]
	assert.True(t, ok)
}

func TestNewMovie_DeduplicatesPeopleAndGenres(t *testing.T) {
	p1 := Person{ID: 1, Name: "A"}
	p2 := Person{ID: 2, Name: "B"}

	m := NewMovie(10, "Heat", "1995-12-15",
		[]string{"Crime", "Drama", "Crime", ""},
		[]Person{p1, p2, p1})

	assert.Equal(t, []string{"Crime", "Drama"}, m.Genres)
	assert.Equal(t, []Person{p1, p2}, m.People)
}

func TestMovie_CloneIsDeep(t *testing.T) {
	m := NewMovie(1, "Alien", "1979-05-25", []string{"Horror"}, []Person{{ID: 1, Name: "Sigourney Weaver"}})
	c := m.Clone()
	c.Genres[0] = "Comedy"
	c.People[0].Name = "changed"

	assert.Equal(t, "Horror", m.Genres[0])
	assert.Equal(t, "Sigourney Weaver", m.People[0].Name)
}

func TestMovie_SharedPeople(t *testing.T) {
	pacino := Person{ID: 1158, Name: "Al Pacino"}
	deNiro := Person{ID: 380, Name: "Robert De Niro"}
	kilmer := Person{ID: 5576, Name: "Val Kilmer"}

	heat := NewMovie(949, "Heat", "1995-12-15", []string{"Crime"}, []Person{pacino, deNiro, kilmer})
	godfather2 := NewMovie(240, "The Godfather Part II", "1974-12-20", []string{"Drama"}, []Person{pacino, deNiro})
	topGun := NewMovie(744, "Top Gun", "1986-05-16", []string{"Action"}, []Person{kilmer})

	assert.Equal(t, []Person{pacino, deNiro}, heat.SharedPeople(godfather2))
	assert.Equal(t, []Person{kilmer}, heat.SharedPeople(topGun))
	assert.Empty(t, godfather2.SharedPeople(topGun))
}

func TestMovie_Helpers(t *testing.T) {
	m := NewMovie(1, "Heat", "1995-12-15", []string{"Crime", "Thriller"}, nil)

	assert.True(t, m.HasGenre("Thriller"))
	assert.False(t, m.HasGenre("thriller"))
	assert.Equal(t, "1995", m.Year())
	assert.Equal(t, "Heat (1995-12-15)", m.Label())
	assert.True(t, m.NameMatches("HEAT"))
	assert.False(t, m.NameMatches("Heat 2"))

	undated := NewMovie(2, "Untitled", "", nil, nil)
	assert.Equal(t, "", undated.Year())
	require.Equal(t, "Untitled", undated.Label())
}
