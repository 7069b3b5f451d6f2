package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/store"
)

func rebuildCmd() *cobra.Command {
	var (
		count int
		fresh bool
	)

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Fetch top-rated movies from TMDB into the index and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			if count <= 0 {
				count = cfg.Ingest.DefaultCount
			}

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("rebuild: opening store: %w", err)
			}
			defer func() { _ = st.Close() }()

			ix := graph.New()
			if !fresh {
				loaded, loadErr := store.LoadIndex(ctx, st, logger)
				switch {
				case loadErr == nil:
					ix = loaded
				case !errors.Is(loadErr, store.ErrNotFound):
					return fmt.Errorf("rebuild: %w", loadErr)
				}
			}

			in, err := newIngester(ix, logger)
			if err != nil {
				return fmt.Errorf("rebuild: %w", err)
			}

			fmt.Println("Rebuilding database...")
			report, err := in.Populate(ctx, count)
			if err != nil {
				return fmt.Errorf("rebuild: %w", err)
			}
			if err := store.SaveIndex(ctx, st, ix); err != nil {
				return fmt.Errorf("rebuild: %w", err)
			}

			fmt.Printf("Rebuilt index: %s, %d movies total\n", report.String(), ix.Len())
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Number of movies to fetch (default from ingest.default_count)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Start from an empty index instead of the saved one")
	return cmd
}
