// Package store persists connectivity index snapshots between runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ajitpratap0/cinelink/internal/graph"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

// Store defines the interface for snapshot persistence.
type Store interface {
	// Save replaces any previously saved snapshot with s.
	Save(ctx context.Context, s *graph.Snapshot) error

	// Load returns the saved snapshot or ErrNotFound.
	Load(ctx context.Context) (*graph.Snapshot, error)

	// Close cleans up resources.
	Close() error
}

// Backend names accepted by config.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendNeo4j    = "neo4j"
	BackendMemory   = "memory"
)

// SaveIndex snapshots ix into st.
func SaveIndex(ctx context.Context, st Store, ix *graph.Index) error {
	if err := st.Save(ctx, ix.Snapshot()); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

// LoadIndex restores an index from st. It returns ErrNotFound (wrapped) when
// nothing has been saved.
func LoadIndex(ctx context.Context, st Store, logger *slog.Logger) (*graph.Index, error) {
	snap, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	ix, err := graph.Restore(snap)
	if err != nil {
		return nil, fmt.Errorf("restoring index: %w", err)
	}
	if logger != nil {
		logger.Info("store: index loaded", "movies", ix.Len())
	}
	return ix, nil
}
