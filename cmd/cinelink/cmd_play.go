package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/cinelink/internal/game"
	"github.com/ajitpratap0/cinelink/internal/solver"
)

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play an interactive two-player game with move suggestions",
		Long: `Loads the movie index (rebuilding it from TMDB when none is saved) and runs
an interactive game on stdin/stdout. Each turn lists suggested movies; answer
with a candidate number, "skip", or a movie title.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("play: opening store: %w", err)
			}
			defer func() { _ = st.Close() }()

			ix, err := loadIndex(ctx, st, logger, true)
			if err != nil {
				return fmt.Errorf("play: %w", err)
			}

			strategy, err := solver.ParseStrategy(cfg.Game.Strategy)
			if err != nil {
				return fmt.Errorf("play: %w", err)
			}

			d := game.NewDriver(ix, game.DriverOptions{
				Genres:         cfg.Game.Genres,
				MaxSuggestions: cfg.Game.MaxSuggestions,
				Strategy:       strategy,
				GraceTurns:     cfg.Game.FrequencyGraceTurns,
			}, cmd.InOrStdin(), os.Stdout, logger)
			return d.Run(ctx)
		},
	}
}
