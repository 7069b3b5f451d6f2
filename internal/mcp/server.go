// Package mcp implements the Model Context Protocol server for cinelink.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/cinelink/internal/game"
	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
	"github.com/ajitpratap0/cinelink/internal/solver"
)

// Server wraps an MCPServer with cinelink dependencies.
type Server struct {
	mcp      *mcpserver.MCPServer
	index    *graph.Index
	games    *game.Registry
	defaults game.Options
	logger   *slog.Logger
}

// NewServer creates a new MCP server. defaults fills in game settings a
// tool call leaves out; its genres are ignored. If ix or games are nil,
// the tools that need them return an error response instead of panicking.
func NewServer(ix *graph.Index, games *game.Registry, defaults game.Options, logger *slog.Logger) *Server {
	s := &Server{
		index:    ix,
		games:    games,
		defaults: defaults,
		logger:   logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"cinelink",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildLookupTool(), s.handleLookup)
	mcpSrv.AddTool(buildSuggestTool(), s.handleSuggest)
	mcpSrv.AddTool(buildStartGameTool(), s.handleStartGame)
	mcpSrv.AddTool(buildCandidatesTool(), s.handleCandidates)
	mcpSrv.AddTool(buildPlayTool(), s.handlePlay)
	mcpSrv.AddTool(buildSkipTool(), s.handleSkip)
	mcpSrv.AddTool(buildStatsTool(), s.handleStats)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleLookup is the exported handler for the "lookup_movie" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleLookup(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleLookup(ctx, req)
}

// HandleSuggest is the exported handler for the "suggest_moves" tool.
func (s *Server) HandleSuggest(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSuggest(ctx, req)
}

// HandleStartGame is the exported handler for the "start_game" tool.
func (s *Server) HandleStartGame(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleStartGame(ctx, req)
}

// HandleCandidates is the exported handler for the "game_candidates" tool.
func (s *Server) HandleCandidates(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleCandidates(ctx, req)
}

// HandlePlay is the exported handler for the "play_move" tool.
func (s *Server) HandlePlay(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handlePlay(ctx, req)
}

// HandleSkip is the exported handler for the "skip_turn" tool.
func (s *Server) HandleSkip(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSkip(ctx, req)
}

// HandleStats is the exported handler for the "stats" tool.
func (s *Server) HandleStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleStats(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// gameOptions merges per-call settings over the server defaults.
func (s *Server) gameOptions(req mcpgo.CallToolRequest) (game.Options, error) {
	opts := s.defaults
	opts.WinGenre = strings.TrimSpace(req.GetString("win_genre", ""))
	opts.LoseGenre = strings.TrimSpace(req.GetString("lose_genre", ""))
	if opts.WinGenre == "" || opts.LoseGenre == "" {
		return opts, errors.New("win_genre and lose_genre are required")
	}
	if opts.WinGenre == opts.LoseGenre {
		return opts, errors.New("win_genre and lose_genre must differ")
	}
	if ml := req.GetString("max_links", ""); ml != "" {
		parsed, err := solver.ParseMaxLinks(ml)
		if err != nil {
			return opts, err
		}
		opts.MaxLinks = parsed
	}
	if n := req.GetInt("max_suggestions", 0); n != 0 {
		if n < 0 {
			return opts, errors.New("max_suggestions must be positive")
		}
		opts.MaxSuggestions = n
	}
	return opts, nil
}

func (s *Server) lookupGame(req mcpgo.CallToolRequest) (*game.Game, *mcpgo.CallToolResult) {
	if s.games == nil {
		return nil, mcpgo.NewToolResultError("games are unavailable")
	}
	id := strings.TrimSpace(req.GetString("game_id", ""))
	if id == "" {
		return nil, mcpgo.NewToolResultError("game_id is required and must not be empty")
	}
	g, err := s.games.Get(id)
	if err != nil {
		return nil, mcpgo.NewToolResultErrorf("game %q not found", id)
	}
	return g, nil
}

// --- tool definitions ---

func buildLookupTool() mcpgo.Tool {
	return mcpgo.NewTool("lookup_movie",
		mcpgo.WithDescription("Find indexed movies whose title matches exactly, ignoring case."),
		mcpgo.WithString("name",
			mcpgo.Required(),
			mcpgo.Description("The movie title"),
		),
	)
}

func buildSuggestTool() mcpgo.Tool {
	return mcpgo.NewTool("suggest_moves",
		mcpgo.WithDescription("Suggest next moves from a movie for a fresh game: every winning-genre link plus a few others."),
		mcpgo.WithNumber("movie_id",
			mcpgo.Required(),
			mcpgo.Description("TMDB ID of the current movie"),
		),
		mcpgo.WithString("win_genre",
			mcpgo.Required(),
			mcpgo.Description("Genre that wins the game"),
		),
		mcpgo.WithString("lose_genre",
			mcpgo.Required(),
			mcpgo.Description("Genre that loses the game"),
		),
		mcpgo.WithString("max_links",
			mcpgo.Description("Uses allowed per person: a positive integer or infinity"),
		),
		mcpgo.WithNumber("max_suggestions",
			mcpgo.Description("Cap on non-winning suggestions"),
		),
	)
}

func buildStartGameTool() mcpgo.Tool {
	return mcpgo.NewTool("start_game",
		mcpgo.WithDescription("Start a two-player game from a movie. Returns the game state including its ID."),
		mcpgo.WithNumber("start_movie_id",
			mcpgo.Required(),
			mcpgo.Description("TMDB ID of the opening movie"),
		),
		mcpgo.WithString("win_genre",
			mcpgo.Required(),
			mcpgo.Description("Genre that wins the game"),
		),
		mcpgo.WithString("lose_genre",
			mcpgo.Required(),
			mcpgo.Description("Genre that loses the game"),
		),
		mcpgo.WithString("max_links",
			mcpgo.Description("Uses allowed per person: a positive integer or infinity"),
		),
		mcpgo.WithNumber("max_suggestions",
			mcpgo.Description("Cap on non-winning suggestions"),
		),
	)
}

func buildCandidatesTool() mcpgo.Tool {
	return mcpgo.NewTool("game_candidates",
		mcpgo.WithDescription("List the suggested moves for the player whose turn it is."),
		mcpgo.WithString("game_id",
			mcpgo.Required(),
			mcpgo.Description("The game ID returned by start_game"),
		),
	)
}

func buildPlayTool() mcpgo.Tool {
	return mcpgo.NewTool("play_move",
		mcpgo.WithDescription("Play a movie for the current player. Moves that do not link are accepted but flagged."),
		mcpgo.WithString("game_id",
			mcpgo.Required(),
			mcpgo.Description("The game ID returned by start_game"),
		),
		mcpgo.WithNumber("movie_id",
			mcpgo.Required(),
			mcpgo.Description("TMDB ID of the movie to play"),
		),
	)
}

func buildSkipTool() mcpgo.Tool {
	return mcpgo.NewTool("skip_turn",
		mcpgo.WithDescription("Skip the current player's turn. Swaps the win and lose genres."),
		mcpgo.WithString("game_id",
			mcpgo.Required(),
			mcpgo.Description("The game ID returned by start_game"),
		),
	)
}

func buildStatsTool() mcpgo.Tool {
	return mcpgo.NewTool("stats",
		mcpgo.WithDescription("Get index statistics: movies, people, genre buckets and running games."),
	)
}

// --- tool handlers ---

// handleLookup resolves a title to indexed movies.
func (s *Server) handleLookup(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.index == nil {
		return mcpgo.NewToolResultError("index is unavailable"), nil
	}
	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcpgo.NewToolResultError("name is required and must not be empty"), nil
	}
	movies := s.index.LookupByExactName(name)
	if movies == nil {
		movies = []models.Movie{}
	}
	return toolResultJSON(map[string]any{"movies": movies})
}

// handleSuggest runs one solver turn without recording a game.
func (s *Server) handleSuggest(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.index == nil {
		return mcpgo.NewToolResultError("index is unavailable"), nil
	}
	movieID := int64(req.GetInt("movie_id", 0))
	current, ok := s.index.Movie(movieID)
	if !ok {
		return mcpgo.NewToolResultErrorf("movie %d is not indexed", movieID), nil
	}
	opts, err := s.gameOptions(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	sv, err := solver.New(s.index, solver.Config{
		WinGenre:       opts.WinGenre,
		LoseGenre:      opts.LoseGenre,
		Strategy:       opts.Strategy,
		MaxSuggestions: opts.MaxSuggestions,
		MaxLinks:       opts.MaxLinks,
	}, s.logger)
	if err != nil {
		return mcpgo.NewToolResultErrorf("solver: %s", err.Error()), nil
	}
	sv.Start(current)

	ids := sv.NextMoveCandidates(current)
	candidates := make([]models.Movie, 0, len(ids))
	for _, id := range ids.Sorted() {
		if m, ok := s.index.Movie(id); ok {
			candidates = append(candidates, m)
		}
	}
	graph.SortMovies(candidates)

	return toolResultJSON(map[string]any{
		"movie":      current,
		"candidates": candidates,
	})
}

// handleStartGame registers a new game.
func (s *Server) handleStartGame(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.games == nil {
		return mcpgo.NewToolResultError("games are unavailable"), nil
	}
	opts, err := s.gameOptions(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	startID := int64(req.GetInt("start_movie_id", 0))
	g, err := s.games.Create(startID, opts)
	if err != nil {
		return mcpgo.NewToolResultErrorf("start game failed: %s", err.Error()), nil
	}
	s.logger.Info("mcp: game started", "id", g.ID(), "start", startID)
	return toolResultJSON(g.State())
}

// handleCandidates lists the suggestions for the player to move.
func (s *Server) handleCandidates(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	g, errResult := s.lookupGame(req)
	if errResult != nil {
		return errResult, nil
	}
	cands, err := g.Candidates()
	if err != nil {
		return mcpgo.NewToolResultErrorf("candidates failed: %s", err.Error()), nil
	}
	if cands == nil {
		cands = []models.Movie{}
	}
	st := g.State()
	return toolResultJSON(map[string]any{
		"player":     st.Player,
		"current":    st.Current,
		"win_genre":  st.WinGenre,
		"lose_genre": st.LoseGenre,
		"candidates": cands,
		"over":       st.Over,
	})
}

// handlePlay commits a move.
func (s *Server) handlePlay(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	g, errResult := s.lookupGame(req)
	if errResult != nil {
		return errResult, nil
	}
	mv, err := g.Play(int64(req.GetInt("movie_id", 0)))
	if err != nil {
		return mcpgo.NewToolResultErrorf("play failed: %s", err.Error()), nil
	}
	return toolResultJSON(map[string]any{"move": mv, "state": g.State()})
}

// handleSkip passes the turn.
func (s *Server) handleSkip(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	g, errResult := s.lookupGame(req)
	if errResult != nil {
		return errResult, nil
	}
	mv, err := g.Skip()
	if err != nil {
		return mcpgo.NewToolResultErrorf("skip failed: %s", err.Error()), nil
	}
	return toolResultJSON(map[string]any{"move": mv, "state": g.State()})
}

// handleStats returns index statistics.
func (s *Server) handleStats(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.index == nil {
		return mcpgo.NewToolResultError("index is unavailable"), nil
	}
	games := 0
	if s.games != nil {
		games = s.games.Len()
	}
	return toolResultJSON(struct {
		models.IndexStats
		Games int `json:"games"`
	}{IndexStats: s.index.Stats(), Games: games})
}
