package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/store"
)

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> [title...]",
		Short: "Search TMDB by title and add every match to the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("add: opening store: %w", err)
			}
			defer func() { _ = st.Close() }()

			ix, err := store.LoadIndex(ctx, st, logger)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("add: %w", err)
				}
				ix = graph.New()
			}

			in, err := newIngester(ix, logger)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}

			added := 0
			for _, title := range args {
				title = strings.TrimSpace(title)
				if title == "" {
					continue
				}
				report, addErr := in.AddByTitle(ctx, title)
				if addErr != nil {
					return fmt.Errorf("add: %w", addErr)
				}
				for _, id := range report.AddedIDs {
					if m, ok := ix.Movie(id); ok {
						fmt.Printf("Added %s\n", m.Label())
					}
				}
				if report.Existing > 0 {
					fmt.Printf("%d match(es) for %q already indexed\n", report.Existing, title)
				}
				if report.Added == 0 && report.Existing == 0 {
					fmt.Printf("No movies found for %q\n", title)
				}
				added += report.Added
			}

			if added == 0 {
				return nil
			}
			if err := store.SaveIndex(ctx, st, ix); err != nil {
				return fmt.Errorf("add: %w", err)
			}
			fmt.Printf("Saved %d new movie(s); %d total\n", added, ix.Len())
			return nil
		},
	}
}
