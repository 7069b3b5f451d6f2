package game

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ajitpratap0/cinelink/internal/solver"
)

// Registry tracks concurrent games by ID for the HTTP and MCP servers.
type Registry struct {
	mu     sync.RWMutex
	graph  solver.Graph
	games  map[string]*Game
	logger *slog.Logger
}

// NewRegistry creates an empty registry whose games read from g.
func NewRegistry(g solver.Graph, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{graph: g, games: make(map[string]*Game), logger: logger}
}

// Create starts and registers a new game.
func (r *Registry) Create(startID int64, opts Options) (*Game, error) {
	id := uuid.New().String()
	g, err := New(id, r.graph, startID, opts, r.logger)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.games[id] = g
	r.mu.Unlock()
	return g, nil
}

// Get returns the game with id.
func (r *Registry) Get(id string) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return g, nil
}

// Delete removes the game with id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; !ok {
		return fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	delete(r.games, id)
	return nil
}

// IDs returns the registered game IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered games.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
