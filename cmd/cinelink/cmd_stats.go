package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show movie index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("stats: opening store: %w", err)
			}
			defer func() { _ = st.Close() }()

			ix, err := loadIndex(ctx, st, logger, false)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			stats := ix.Stats()
			fmt.Printf("Movies: %d\n", stats.Movies)
			fmt.Printf("People: %d\n", stats.People)
			fmt.Printf("Person/genre buckets: %d\n\n", stats.PersonGenreKeys)

			genres := make([]string, 0, len(stats.ByGenre))
			for g := range stats.ByGenre {
				genres = append(genres, g)
			}
			sort.Strings(genres)

			fmt.Println("By genre:")
			for _, g := range genres {
				fmt.Printf("  %-16s %d\n", g, stats.ByGenre[g])
			}
			return nil
		},
	}
}
