package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name>",
		Short: "Find indexed movies by exact title (case-insensitive)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("lookup: opening store: %w", err)
			}
			defer func() { _ = st.Close() }()

			ix, err := loadIndex(ctx, st, logger, false)
			if err != nil {
				return fmt.Errorf("lookup: %w", err)
			}

			name := strings.Join(args, " ")
			movies := ix.LookupByExactName(name)
			if len(movies) == 0 {
				fmt.Println("No movie was found. Try adding it.")
				return nil
			}
			for i := range movies {
				m := movies[i]
				fmt.Printf("[%d] %s  genres: %s  people: %d\n",
					m.ID, m.Label(), strings.Join(m.Genres, ", "), len(m.People))
			}
			return nil
		},
	}
}
