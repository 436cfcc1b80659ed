// Package statscache caches per-project duplicate statistics so dashboards
// survive restarts without refetching from the backend. The cache is a
// derived view, never a source of truth: every successful detect or
// resolve-all overwrites or invalidates the entry, and readers fall back to
// authoritative backend counts on a miss.
package statscache

import (
	"context"
	"sync"
	"time"

	"github.com/kiorlabs/duplicate-review-service/internal/groups"
)

// Entry is one cached statistics record for a project.
type Entry struct {
	Stats     groups.Stats `json:"stats"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Store persists duplicate statistics keyed by project ID.
type Store interface {
	// Get returns the cached entry for a project. The second return value
	// is false on a cache miss.
	Get(ctx context.Context, projectID string) (Entry, bool, error)

	// Put stores or replaces the entry for a project.
	Put(ctx context.Context, projectID string, e Entry) error

	// Invalidate removes the entry for a project. Removing a missing entry
	// is not an error.
	Invalidate(ctx context.Context, projectID string) error
}

// Memory is an in-process Store for tests and single-node deployments.
// It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, projectID string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[projectID]
	return e, ok, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, projectID string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[projectID] = e
	return nil
}

// Invalidate implements Store.
func (m *Memory) Invalidate(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, projectID)
	return nil
}
