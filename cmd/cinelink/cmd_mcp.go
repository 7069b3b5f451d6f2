package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/cinelink/internal/graph"
	cinemcp "github.com/ajitpratap0/cinelink/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  lookup_movie     find indexed movies by title
  suggest_moves    one-off suggestions from a movie
  start_game       start a two-player game
  game_candidates  suggestions for the player to move
  play_move        play a movie
  skip_turn        pass the turn
  stats            index statistics

If the movie index cannot be loaded the server still starts with an empty
index; lookups and games will find nothing until it is rebuilt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			ix := graph.New()
			st, storeErr := newStore(ctx, logger)
			if storeErr != nil {
				logger.Error("mcp: failed to open store; serving an empty index", "error", storeErr)
			} else {
				defer func() { _ = st.Close() }()
				loaded, loadErr := loadIndex(ctx, st, logger, false)
				if loadErr != nil {
					logger.Error("mcp: failed to load index; serving an empty index", "error", loadErr)
				} else {
					ix = loaded
				}
			}

			defaults, err := gameDefaults()
			if err != nil {
				return err
			}
			srv := cinemcp.NewServer(ix, newRegistry(ctx, ix, logger), defaults, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: cinelink MCP server starting", "transport", "stdio", "movies", ix.Len())

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
