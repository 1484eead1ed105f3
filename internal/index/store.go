package index

import (
	"context"
	"sync"

	"github.com/nao1215/storefront/internal/model"
)

// Store persists index snapshots between runs. database.IndexStore is the
// SQLite implementation.
type Store interface {
	// Load returns the stored snapshot and true, or false if none exists.
	Load(ctx context.Context, name string) (*model.IndexEntry, bool, error)

	// Save replaces the stored snapshot for entry.Name.
	Save(ctx context.Context, entry *model.IndexEntry) error
}

// MemoryStore keeps snapshots in a map.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*model.IndexEntry
	saves   int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*model.IndexEntry)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, name string) (*model.IndexEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	return e, ok, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, entry *model.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Name] = entry
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
