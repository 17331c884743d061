package collection

import "sync"

// SyncMap is a map guarded by a RWMutex.
type SyncMap[K comparable, V any] struct {
	m   map[K]V
	mux sync.RWMutex
}

func (m *SyncMap[K, V]) Get(k K) (V, bool) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	v, ok := m.m[k]
	return v, ok
}

// PutAll stores every entry of values under a single lock.
func (m *SyncMap[K, V]) PutAll(values map[K]V) {
	m.mux.Lock()
	defer m.mux.Unlock()
	for k, v := range values {
		m.m[k] = v
	}
}

// Delete removes the keys under a single lock.
func (m *SyncMap[K, V]) Delete(keys ...K) {
	m.mux.Lock()
	defer m.mux.Unlock()
	for _, k := range keys {
		delete(m.m, k)
	}
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{m: make(map[K]V)}
}
