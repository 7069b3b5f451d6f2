package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func genresCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List the genres offered when starting a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			genres := cfg.Game.Genres
			if remote {
				client, err := newTMDB(newLogger())
				if err != nil {
					return fmt.Errorf("genres: %w", err)
				}
				if genres, err = client.Genres(cmd.Context()); err != nil {
					return fmt.Errorf("genres: %w", err)
				}
			}
			for i, g := range genres {
				fmt.Printf("%d) %s\n", i+1, g)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the current genre list from TMDB")
	return cmd
}
