// Package session holds the per-visitor key/value flags a storefront page
// consults while rendering (fonts-loaded, acdl:debug, view history).
package session

import (
	"maps"
	"strings"
	"sync"
)

// Well-known keys.
const (
	// FontsLoaded is set once the font stylesheet was loaded for the visitor.
	FontsLoaded = "fonts-loaded"

	// ACDLDebug enables the analytics data layer validator.
	ACDLDebug = "acdl:debug"
)

// Store is a string key/value store scoped to one visitor.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Memory is an in-memory Store safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates a Memory seeded with values.
func NewMemory(values map[string]string) *Memory {
	m := &Memory{values: make(map[string]string, len(values))}
	maps.Copy(m.values, values)
	return m
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set implements Store.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Delete implements Store.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// Snapshot returns a copy of every stored value.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// Flag reports whether key is set to a non-empty value, the way a browser
// treats sessionStorage.getItem(key) as truthy.
func Flag(s Store, key string) bool {
	if s == nil {
		return false
	}
	v, ok := s.Get(key)
	return ok && v != ""
}

// ParsePairs turns "key=value" strings into a map. A pair without "=" is
// stored with the value "true".
func ParsePairs(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if !ok {
			v = "true"
		}
		out[k] = v
	}
	return out
}
