package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
)

// chainIndex: A and B share p1 and p2, B and C share only p1, C and D share p3.
func chainIndex(t *testing.T) (*graph.Index, map[string]models.Movie) {
	t.Helper()
	p1, p2, p3 := person(1), person(2), person(3)
	movies := map[string]models.Movie{
		"A": models.NewMovie(1, "A", "", []string{"Drama"}, []models.Person{p1, p2}),
		"B": models.NewMovie(2, "B", "", []string{"Drama"}, []models.Person{p1, p2}),
		"C": models.NewMovie(3, "C", "", []string{"Drama"}, []models.Person{p1, p3}),
		"D": models.NewMovie(4, "D", "", []string{"Drama"}, []models.Person{p3}),
	}
	ix := graph.New()
	for _, m := range movies {
		require.True(t, ix.Insert(m))
	}
	return ix, movies
}

func TestSession_UsedMoviesAreNeverValid(t *testing.T) {
	ix, m := chainIndex(t)
	s := NewSession(ix, Unlimited)

	assert.True(t, s.IsValid(1, 2))
	s.CommitMove(nil, m["B"], false)
	assert.False(t, s.IsValid(1, 2))
	assert.True(t, s.Used(2))
	assert.Equal(t, 1, s.UsedCount())
}

func TestSession_UsedSetIsMonotonic(t *testing.T) {
	ix, m := chainIndex(t)
	s := NewSession(ix, Unlimited)
	a, b, c := m["A"], m["B"], m["C"]

	s.CommitMove(nil, a, false)
	s.CommitMove(&a, b, true)
	s.CommitMove(&b, c, true)
	s.CommitMove(&b, c, true)

	assert.Equal(t, 3, s.UsedCount())
	for _, id := range []int64{1, 2, 3} {
		assert.True(t, s.Used(id))
	}
	assert.False(t, s.Used(4))
}

func TestSession_UnknownMoviesAreInvalid(t *testing.T) {
	ix, _ := chainIndex(t)
	s := NewSession(ix, Unlimited)

	assert.False(t, s.IsValid(1, 999))
	assert.False(t, s.IsValid(999, 1))
}

func TestSession_NoSharedPersonIsInvalid(t *testing.T) {
	ix, _ := chainIndex(t)
	s := NewSession(ix, Unlimited)

	assert.False(t, s.IsValid(1, 4))
}

func TestSession_FrequencyGatesLinks(t *testing.T) {
	ix, m := chainIndex(t)
	s := NewSession(ix, 1)
	a, b := m["A"], m["B"]

	s.CommitMove(nil, a, false)
	s.CommitMove(&a, b, true)
	assert.Equal(t, 1, s.Frequency(person(1)))
	assert.Equal(t, 1, s.Frequency(person(2)))

	// B to C links only through p1, which has hit the cap.
	assert.False(t, s.IsValid(2, 3))
}

func TestSession_AnyPersonUnderCapKeepsMoveValid(t *testing.T) {
	ix, m := chainIndex(t)
	s := NewSession(ix, 1)
	b, c := m["B"], m["C"]

	// Burn p1 through a B->C commit, then check A->B: p1 is capped, p2 is not.
	s.CommitMove(&b, c, true)
	require.Equal(t, 1, s.Frequency(person(1)))
	require.Equal(t, 0, s.Frequency(person(2)))

	assert.True(t, s.IsValid(1, 2))
}

func TestSession_FrequencyNotCountedWithoutUpdate(t *testing.T) {
	ix, m := chainIndex(t)
	s := NewSession(ix, 1)
	a, b := m["A"], m["B"]

	s.CommitMove(nil, a, false)
	s.CommitMove(&a, b, false)

	assert.Zero(t, s.Frequency(person(1)))
	assert.True(t, s.IsValid(2, 3))
}

func TestSession_UnlimitedNeverRejectsOnFrequency(t *testing.T) {
	ix, m := chainIndex(t)
	s := NewSession(ix, Unlimited)
	a, b := m["A"], m["B"]

	for i := 0; i < 50; i++ {
		s.CommitMove(&a, b, true)
	}
	assert.Equal(t, 50, s.Frequency(person(1)))
	assert.Equal(t, Unlimited, s.MaxLinks())

	// C is unused and shares p1 with B.
	assert.True(t, s.IsValid(2, 3))
}

func TestMaxLinks_Allows(t *testing.T) {
	assert.True(t, MaxLinks(3).Allows(0))
	assert.True(t, MaxLinks(3).Allows(2))
	assert.False(t, MaxLinks(3).Allows(3))
	assert.False(t, MaxLinks(1).Allows(1))
	assert.True(t, Unlimited.Allows(1<<30))
}

func TestParseMaxLinks(t *testing.T) {
	cases := map[string]MaxLinks{
		"1":         1,
		" 5 ":       5,
		"infinity":  Unlimited,
		"Infinity":  Unlimited,
		"inf":       Unlimited,
		"unlimited": Unlimited,
		"none":      Unlimited,
		"∞":         Unlimited,
	}
	for in, want := range cases {
		got, err := ParseMaxLinks(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "0", "-1", "three", "1.5"} {
		_, err := ParseMaxLinks(bad)
		assert.Error(t, err, bad)
	}
}

func TestMaxLinks_StringRoundTrip(t *testing.T) {
	for _, m := range []MaxLinks{1, 3, Unlimited} {
		got, err := ParseMaxLinks(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}
