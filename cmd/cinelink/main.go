package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/cinelink/internal/config"
	"github.com/ajitpratap0/cinelink/internal/game"
	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/ingest"
	"github.com/ajitpratap0/cinelink/internal/lifecycle"
	"github.com/ajitpratap0/cinelink/internal/solver"
	"github.com/ajitpratap0/cinelink/internal/store"
	"github.com/ajitpratap0/cinelink/internal/tmdb"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "cinelink",
		Short: "cinelink: a movie-linking game solver backed by TMDB",
		Long:  "cinelink indexes TMDB movies by the people who made them and suggests moves for two-player movie-linking games.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		playCmd(),
		rebuildCmd(),
		addCmd(),
		lookupCmd(),
		suggestCmd(),
		statsCmd(),
		genresCmd(),
		healthCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newStore(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case store.BackendPostgres:
		return store.NewPostgresStore(cfg.Postgres.DSN, logger)
	case store.BackendNeo4j:
		return store.NewNeo4jStore(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database, logger)
	case store.BackendMemory:
		return store.NewMockStore(), nil
	default:
		return store.NewFileStore(cfg.Store.Path, logger)
	}
}

func newTMDB(logger *slog.Logger) (*tmdb.Client, error) {
	return tmdb.NewClient(tmdb.Options{
		APIKey:     cfg.TMDB.APIKey,
		BaseURL:    cfg.TMDB.BaseURL,
		Language:   cfg.TMDB.Language,
		CastLimit:  cfg.TMDB.CastLimit,
		CrewLimit:  cfg.TMDB.CrewLimit,
		Timeout:    cfg.TMDB.Timeout,
		CacheSize:  cfg.TMDB.CacheSize,
		ListingTTL: cfg.TMDB.ListingTTL,
	}, logger)
}

func newIngester(ix *graph.Index, logger *slog.Logger) (*ingest.Ingester, error) {
	client, err := newTMDB(logger)
	if err != nil {
		return nil, err
	}
	return ingest.New(client, ix, cfg.Ingest.Concurrency, logger), nil
}

// gameDefaults turns the game config section into template options; genres
// are filled per game.
func gameDefaults() (game.Options, error) {
	strategy, err := solver.ParseStrategy(cfg.Game.Strategy)
	if err != nil {
		return game.Options{}, err
	}
	maxLinks, err := cfg.Game.MaxLinksValue()
	if err != nil {
		return game.Options{}, err
	}
	return game.Options{
		MaxLinks:       maxLinks,
		MaxSuggestions: cfg.Game.MaxSuggestions,
		Strategy:       strategy,
		GraceTurns:     cfg.Game.FrequencyGraceTurns,
	}, nil
}

// newRegistry creates the game registry for a long-running server and starts
// its sweeper, which stops with ctx.
func newRegistry(ctx context.Context, ix *graph.Index, logger *slog.Logger) *game.Registry {
	games := game.NewRegistry(ix, logger)
	lm := lifecycle.NewManager(games, lifecycle.Policy{
		FinishedTTL: cfg.Game.FinishedTTL,
		IdleTTL:     cfg.Game.IdleTTL,
	}, logger)
	go lm.Start(ctx, cfg.Game.SweepInterval)
	return games
}

// loadIndex restores the saved index. With rebuild set, a missing snapshot
// triggers a fresh top-rated rebuild that is saved before returning.
func loadIndex(ctx context.Context, st store.Store, logger *slog.Logger, rebuild bool) (*graph.Index, error) {
	ix, err := store.LoadIndex(ctx, st, logger)
	if err == nil {
		return ix, nil
	}
	if !errors.Is(err, store.ErrNotFound) || !rebuild {
		return nil, err
	}

	fmt.Fprintln(os.Stderr, "Could not load the movie index, rebuilding...")
	ix = graph.New()
	in, err := newIngester(ix, logger)
	if err != nil {
		return nil, err
	}
	report, err := in.Populate(ctx, cfg.Ingest.DefaultCount)
	if err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}
	logger.Info("index rebuilt", "report", report.String())
	if err := store.SaveIndex(ctx, st, ix); err != nil {
		return nil, err
	}
	return ix, nil
}
