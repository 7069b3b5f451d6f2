package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ajitpratap0/cinelink/internal/graph"
)

// MockStore is an in-memory implementation of Store for testing and for the
// "memory" backend.
type MockStore struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Save stores an encoded copy of s so later mutation by the caller is not
// visible through Load.
func (m *MockStore) Save(_ context.Context, s *graph.Snapshot) error {
	if s == nil {
		return fmt.Errorf("saving nil snapshot")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Load decodes the saved snapshot into a fresh value.
func (m *MockStore) Load(_ context.Context) (*graph.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	var s graph.Snapshot
	if err := json.Unmarshal(m.data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &s, nil
}

// Saves returns how many times Save succeeded.
func (m *MockStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
