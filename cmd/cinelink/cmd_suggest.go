package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
	"github.com/ajitpratap0/cinelink/internal/solver"
)

func suggestCmd() *cobra.Command {
	var (
		winGenre  string
		loseGenre string
		maxLinks  string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "suggest <movie-id>",
		Short: "Suggest next moves from a movie without starting a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("suggest: invalid movie id %q", args[0])
			}
			opts, err := gameDefaults()
			if err != nil {
				return fmt.Errorf("suggest: %w", err)
			}
			if maxLinks != "" {
				if opts.MaxLinks, err = solver.ParseMaxLinks(maxLinks); err != nil {
					return fmt.Errorf("suggest: %w", err)
				}
			}
			if limit > 0 {
				opts.MaxSuggestions = limit
			}

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("suggest: opening store: %w", err)
			}
			defer func() { _ = st.Close() }()

			ix, err := loadIndex(ctx, st, logger, false)
			if err != nil {
				return fmt.Errorf("suggest: %w", err)
			}
			current, ok := ix.Movie(id)
			if !ok {
				return fmt.Errorf("suggest: movie %d is not indexed", id)
			}

			sv, err := solver.New(ix, solver.Config{
				WinGenre:       winGenre,
				LoseGenre:      loseGenre,
				Strategy:       opts.Strategy,
				MaxSuggestions: opts.MaxSuggestions,
				MaxLinks:       opts.MaxLinks,
			}, logger)
			if err != nil {
				return fmt.Errorf("suggest: %w", err)
			}
			sv.Start(current)

			ids := sv.NextMoveCandidates(current)
			cands := make([]models.Movie, 0, len(ids))
			for _, cid := range ids.Sorted() {
				if m, ok := ix.Movie(cid); ok {
					cands = append(cands, m)
				}
			}
			graph.SortMovies(cands)

			fmt.Printf("Current movie: %s\n", current.Label())
			if len(cands) == 0 {
				fmt.Println("No candidate movies found.")
				return nil
			}
			fmt.Println("Candidate movies:")
			for i := range cands {
				marker := ""
				if cands[i].HasGenre(winGenre) {
					marker = " *"
				}
				fmt.Printf("%d) %s - Connection genres: %s%s\n",
					i+1, cands[i].Label(), strings.Join(cands[i].Genres, ", "), marker)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&winGenre, "win", "", "Genre that wins the game (required)")
	cmd.Flags().StringVar(&loseGenre, "lose", "", "Genre that loses the game (required)")
	cmd.Flags().StringVar(&maxLinks, "max-links", "", "Uses allowed per person: 1..N or infinity (default from game.max_links)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap on non-winning suggestions (default from game.max_suggestions)")
	_ = cmd.MarkFlagRequired("win")
	_ = cmd.MarkFlagRequired("lose")
	return cmd
}
