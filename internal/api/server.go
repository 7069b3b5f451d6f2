package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ajitpratap0/cinelink/internal/game"
	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
	"github.com/ajitpratap0/cinelink/internal/solver"
)

// Server is an HTTP API server that exposes lookups and game play.
type Server struct {
	index     *graph.Index
	games     *game.Registry
	defaults  game.Options // genres unset; fills what a request leaves out
	logger    *slog.Logger
	authToken string // empty = no auth required
}

// NewServer creates a new Server with the given dependencies.
func NewServer(ix *graph.Index, games *game.Registry, defaults game.Options, logger *slog.Logger, authToken string) *Server {
	return &Server{
		index:     ix,
		games:     games,
		defaults:  defaults,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	// Health check, no auth required.
	r.GET("/healthz", s.handleHealthz)

	v1 := r.Group("/v1", s.auth())
	v1.GET("/movies", s.handleLookupMovies)
	v1.GET("/movies/:id", s.handleGetMovie)
	v1.GET("/stats", s.handleStats)

	v1.POST("/games", s.handleCreateGame)
	v1.GET("/games/:id", s.handleGetGame)
	v1.DELETE("/games/:id", s.handleDeleteGame)
	v1.GET("/games/:id/candidates", s.handleCandidates)
	v1.POST("/games/:id/moves", s.handlePlay)
	v1.POST("/games/:id/skip", s.handleSkip)

	return r
}

// --- middleware ---

// auth enforces Bearer token authentication when authToken is set.
func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.authToken == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("api: request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// --- handlers ---

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "movies": s.index.Len()})
}

type moviesResponse struct {
	Movies []models.Movie `json:"movies"`
}

func (s *Server) handleLookupMovies(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		s.writeError(c, http.StatusBadRequest, "name is required")
		return
	}
	movies := s.index.LookupByExactName(name)
	if movies == nil {
		movies = []models.Movie{}
	}
	c.JSON(http.StatusOK, moviesResponse{Movies: movies})
}

func (s *Server) handleGetMovie(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	m, ok := s.index.Movie(id)
	if !ok {
		s.writeError(c, http.StatusNotFound, "movie not found")
		return
	}
	c.JSON(http.StatusOK, m)
}

type statsResponse struct {
	models.IndexStats
	Games int `json:"games"`
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{IndexStats: s.index.Stats(), Games: s.games.Len()})
}

// createGameRequest is the body accepted by POST /v1/games.
type createGameRequest struct {
	StartMovieID   int64  `json:"start_movie_id" binding:"required,gt=0"`
	WinGenre       string `json:"win_genre" binding:"required"`
	LoseGenre      string `json:"lose_genre" binding:"required,nefield=WinGenre"`
	MaxLinks       string `json:"max_links"`
	MaxSuggestions *int   `json:"max_suggestions" binding:"omitempty,gte=1"`
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	opts := s.defaults
	opts.WinGenre = req.WinGenre
	opts.LoseGenre = req.LoseGenre
	if req.MaxLinks != "" {
		ml, err := solver.ParseMaxLinks(req.MaxLinks)
		if err != nil {
			s.writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		opts.MaxLinks = ml
	}
	if req.MaxSuggestions != nil {
		opts.MaxSuggestions = *req.MaxSuggestions
	}

	g, err := s.games.Create(req.StartMovieID, opts)
	if err != nil {
		s.writeGameError(c, err, "failed to create game")
		return
	}
	c.JSON(http.StatusCreated, g.State())
}

func (s *Server) lookupGame(c *gin.Context) (*game.Game, bool) {
	g, err := s.games.Get(c.Param("id"))
	if err != nil {
		s.writeGameError(c, err, "failed to get game")
		return nil, false
	}
	return g, true
}

func (s *Server) handleGetGame(c *gin.Context) {
	g, ok := s.lookupGame(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, g.State())
}

func (s *Server) handleDeleteGame(c *gin.Context) {
	if err := s.games.Delete(c.Param("id")); err != nil {
		s.writeGameError(c, err, "failed to delete game")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type candidatesResponse struct {
	Candidates []models.Movie `json:"candidates"`
	WinGenre   string         `json:"win_genre"`
	LoseGenre  string         `json:"lose_genre"`
	Over       bool           `json:"over"`
}

func (s *Server) handleCandidates(c *gin.Context) {
	g, ok := s.lookupGame(c)
	if !ok {
		return
	}
	cands, err := g.Candidates()
	if err != nil {
		s.writeGameError(c, err, "failed to compute candidates")
		return
	}
	if cands == nil {
		cands = []models.Movie{}
	}
	st := g.State()
	c.JSON(http.StatusOK, candidatesResponse{
		Candidates: cands,
		WinGenre:   st.WinGenre,
		LoseGenre:  st.LoseGenre,
		Over:       st.Over,
	})
}

// moveRequest is the body accepted by POST /v1/games/:id/moves.
type moveRequest struct {
	MovieID int64 `json:"movie_id" binding:"required,gt=0"`
}

type moveResponse struct {
	Move  game.Move  `json:"move"`
	State game.State `json:"state"`
}

func (s *Server) handlePlay(c *gin.Context) {
	g, ok := s.lookupGame(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	mv, err := g.Play(req.MovieID)
	if err != nil {
		s.writeGameError(c, err, "failed to play move")
		return
	}
	c.JSON(http.StatusOK, moveResponse{Move: mv, State: g.State()})
}

func (s *Server) handleSkip(c *gin.Context) {
	g, ok := s.lookupGame(c)
	if !ok {
		return
	}
	mv, err := g.Skip()
	if err != nil {
		s.writeGameError(c, err, "failed to skip turn")
		return
	}
	c.JSON(http.StatusOK, moveResponse{Move: mv, State: g.State()})
}

// --- helpers ---

// writeError writes a JSON error response.
func (s *Server) writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// writeGameError maps game and solver sentinels to status codes.
func (s *Server) writeGameError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		s.writeError(c, http.StatusNotFound, "game not found")
	case errors.Is(err, game.ErrUnknownMovie):
		s.writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, game.ErrGameOver):
		s.writeError(c, http.StatusConflict, "game is over")
	case errors.Is(err, solver.ErrInvalidConfig):
		s.writeError(c, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(fallback, "error", err)
		s.writeError(c, http.StatusInternalServerError, fallback)
	}
}

// bindingMessage turns a bind error into a client-facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %s failed %q validation", fe.Field(), fe.Tag())
	}
	return "invalid request body"
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
