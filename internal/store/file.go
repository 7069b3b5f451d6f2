package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/cinelink/internal/graph"
)

// FileStore keeps the snapshot as a JSON document on local disk.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store writing to path. Parent directories are
// created on first save.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string { return f.path }

// Save writes s to a temp file in the same directory and renames it over the
// previous snapshot, so readers never see a partial file.
func (f *FileStore) Save(ctx context.Context, s *graph.Snapshot) error {
	if s == nil {
		return fmt.Errorf("saving nil snapshot")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(s); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing snapshot %s: %w", f.path, err)
	}
	f.logger.Info("store: snapshot saved", "path", f.path, "movies", len(s.Movies))
	return nil
}

// Load reads the snapshot from disk.
func (f *FileStore) Load(ctx context.Context) (*graph.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening snapshot %s: %w", f.path, err)
	}
	defer file.Close()

	var s graph.Snapshot
	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", f.path, err)
	}
	return &s, nil
}

// Close is a no-op; the file is not held open between calls.
func (f *FileStore) Close() error { return nil }
