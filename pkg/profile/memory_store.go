package profile

import (
	"sort"
	"sync"
)

// MemoryStore is a Catalog held in memory. Used when no database path is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore returns a catalog seeded with Defaults.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{profiles: make(map[string]Profile)}
	for _, p := range Defaults() {
		m.profiles[key(p.Name)] = p
	}
	return m
}

func (m *MemoryStore) Get(name string) (Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[key(name)]
	return p, ok, nil
}

func (m *MemoryStore) Put(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[key(p.Name)] = p
	return nil
}

func (m *MemoryStore) List() ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// Open returns a BoltStore at path, or a MemoryStore when path is empty.
func Open(path string) (Catalog, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewBoltStore(path)
}
