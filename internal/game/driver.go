package game

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ajitpratap0/cinelink/internal/models"
	"github.com/ajitpratap0/cinelink/internal/solver"
)

// DefaultMaxLinks applies when the max links answer can't be parsed.
const DefaultMaxLinks solver.MaxLinks = 3

// DefaultGenres is TMDB's movie genre list.
var DefaultGenres = []string{
	"Action", "Adventure", "Animation", "Comedy", "Crime",
	"Documentary", "Drama", "Family", "Fantasy", "History",
	"Horror", "Music", "Mystery", "Romance", "Science Fiction",
	"Thriller", "TV Movie", "War", "Western",
}

// Catalog is the index surface the interactive driver needs.
// *graph.Index satisfies it.
type Catalog interface {
	solver.Graph
	LookupByExactName(name string) []models.Movie
}

// DriverOptions are the settings the driver does not ask for.
type DriverOptions struct {
	Genres         []string
	MaxSuggestions int
	Strategy       solver.Strategy
	GraceTurns     int
}

// Driver plays one game over a line-oriented text interface.
type Driver struct {
	catalog Catalog
	opts    DriverOptions
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
}

// NewDriver creates a driver reading answers from in and writing prompts to out.
func NewDriver(catalog Catalog, opts DriverOptions, in io.Reader, out io.Writer, logger *slog.Logger) *Driver {
	if len(opts.Genres) == 0 {
		opts.Genres = DefaultGenres
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{catalog: catalog, opts: opts, in: bufio.NewScanner(in), out: out, logger: logger}
}

// ask prints prompt and returns the next trimmed input line. ok is false at
// end of input.
func (d *Driver) ask(prompt string) (string, bool) {
	fmt.Fprint(d.out, prompt)
	if !d.in.Scan() {
		fmt.Fprintln(d.out)
		return "", false
	}
	return strings.TrimSpace(d.in.Text()), true
}

func (d *Driver) chooseGenres() (win, lose string, ok bool) {
	for i, g := range d.opts.Genres {
		fmt.Fprintf(d.out, "%d) %s\n", i+1, g)
	}
	pick := func(prompt string) (string, bool) {
		line, ok := d.ask(prompt)
		if !ok {
			return "", false
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(d.opts.Genres) {
			return "", false
		}
		return d.opts.Genres[n-1], true
	}
	if win, ok = pick("Winning genre: "); !ok {
		fmt.Fprintln(d.out, "Invalid genre selection.")
		return "", "", false
	}
	if lose, ok = pick("Losing genre: "); !ok {
		fmt.Fprintln(d.out, "Invalid genre selection.")
		return "", "", false
	}
	return win, lose, true
}

func (d *Driver) chooseMaxLinks() (solver.MaxLinks, bool) {
	line, ok := d.ask("Max links (1, 2, 3, 4, 5 or infinity): ")
	if !ok {
		return 0, false
	}
	m, err := solver.ParseMaxLinks(line)
	if err != nil {
		fmt.Fprintf(d.out, "Invalid input for max links. Defaulting to %s.\n", DefaultMaxLinks)
		return DefaultMaxLinks, true
	}
	return m, true
}

// selectMovie resolves a list of same-named movies to one. A nil result
// means the user cancelled or input ended.
func (d *Driver) selectMovie(matches []models.Movie) *models.Movie {
	switch len(matches) {
	case 0:
		return nil
	case 1:
		return &matches[0]
	}
	fmt.Fprintln(d.out, "Multiple movies found with that name. Select the intended one:")
	for i, m := range matches {
		fmt.Fprintf(d.out, "%d) %s\n", i+1, m.Label())
	}
	for {
		line, ok := d.ask("Enter your choice number (0 to cancel): ")
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(line)
		switch {
		case err != nil:
			fmt.Fprintln(d.out, "Invalid input. Please enter a number.")
		case n == 0:
			return nil
		case n >= 1 && n <= len(matches):
			return &matches[n-1]
		default:
			fmt.Fprintln(d.out, "Choice out of range. Please try again.")
		}
	}
}

// isDigits reports whether s is a non-empty run of ASCII digits. Signed
// numbers are treated as titles.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (d *Driver) printCandidates(cands []models.Movie) {
	fmt.Fprintln(d.out, "Candidate movies:")
	for i, m := range cands {
		fmt.Fprintf(d.out, "%d) %s - Connection genres: %s\n", i+1, m.Label(), strings.Join(m.Genres, ", "))
	}
}

// Run plays a game to completion. It returns nil when the game ends normally,
// when the user backs out during setup, or when input runs out.
func (d *Driver) Run(ctx context.Context) error {
	win, lose, ok := d.chooseGenres()
	if !ok {
		return nil
	}
	maxLinks, ok := d.chooseMaxLinks()
	if !ok {
		return nil
	}

	name, ok := d.ask("Starting movie: ")
	if !ok {
		return nil
	}
	matches := d.catalog.LookupByExactName(name)
	if len(matches) == 0 {
		fmt.Fprintln(d.out, "No movie was found. Try adding it.")
		fmt.Fprintln(d.out, "Exiting the game.")
		return nil
	}
	start := d.selectMovie(matches)
	if start == nil {
		fmt.Fprintln(d.out, "Exiting the game.")
		return nil
	}
	fmt.Fprintf(d.out, "Movie '%s' selected with release date %s.\n", start.Name, start.ReleaseDate)

	g, err := New("interactive", d.catalog, start.ID, Options{
		WinGenre:       win,
		LoseGenre:      lose,
		MaxLinks:       maxLinks,
		MaxSuggestions: d.opts.MaxSuggestions,
		Strategy:       d.opts.Strategy,
		GraceTurns:     d.opts.GraceTurns,
	}, d.logger)
	if err != nil {
		return fmt.Errorf("starting game: %w", err)
	}
	return d.loop(ctx, g)
}

func (d *Driver) loop(ctx context.Context, g *Game) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := g.State()
		fmt.Fprintf(d.out, "\nPlayer %d's turn.\n", st.Player)
		fmt.Fprintf(d.out, "Current movie: %s\n", st.Current.Label())

		cands, err := g.Candidates()
		if err != nil {
			return err
		}
		if len(cands) == 0 {
			fmt.Fprintln(d.out, "No candidate movies found. Ending game.")
			return nil
		}
		d.printCandidates(cands)

		line, ok := d.ask("Enter candidate number or type movie name (or 'skip' to skip): ")
		if !ok {
			return nil
		}

		var chosen *models.Movie
		if isDigits(line) {
			n, _ := strconv.Atoi(line)
			if n < 1 || n > len(cands) {
				fmt.Fprintln(d.out, "Invalid candidate number. Ending game.")
				g.End()
				return nil
			}
			chosen = &cands[n-1]
		} else if strings.EqualFold(line, "skip") {
			if _, err := g.Skip(); err != nil {
				return err
			}
			continue
		} else {
			matches := d.catalog.LookupByExactName(line)
			if len(matches) == 0 {
				fmt.Fprintln(d.out, "No movies found. We skipped for you.")
				if _, err := g.Skip(); err != nil {
					return err
				}
				continue
			}
			if chosen = d.selectMovie(matches); chosen == nil {
				fmt.Fprintln(d.out, "No valid movie selected, skipping turn.")
				if _, err := g.Skip(); err != nil {
					return err
				}
				continue
			}
		}

		mv, err := g.Play(chosen.ID)
		if err != nil {
			return err
		}
		if !mv.Validated {
			fmt.Fprintf(d.out, "Note: %s does not link to the previous movie under the current rules.\n", chosen.Label())
		}
	}
}
