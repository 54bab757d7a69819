package store

import (
	"sort"
	"sync"
)

// MemoryStore is a process-local KV backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (m *MemoryStore) GetRaw(namespace, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[namespace][key]
	return v, ok, nil
}

func (m *MemoryStore) PutRaw(namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]string)
		m.data[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (m *MemoryStore) DeleteRaw(namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[namespace], key)
	return nil
}

func (m *MemoryStore) Keys(namespace string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data[namespace]))
	for k := range m.data[namespace] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Close() error { return nil }
