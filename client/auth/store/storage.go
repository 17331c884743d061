package store

import (
	"github.com/viant/storefront/internal/collection"
)

// Storage is a string key/value persistence layer for encoded session fields.
// The in-memory default is fine for tests and short-lived processes; use
// NewFileStorage to survive restarts.
type Storage interface {
	Get(key string) (string, bool)
	// SetAll writes values as one update, so a token pair is never half replaced.
	SetAll(values map[string]string) error
	Delete(keys ...string) error
}

type memoryStorage struct {
	values *collection.SyncMap[string, string]
}

func (m *memoryStorage) Get(key string) (string, bool) {
	return m.values.Get(key)
}

func (m *memoryStorage) SetAll(values map[string]string) error {
	m.values.PutAll(values)
	return nil
}

func (m *memoryStorage) Delete(keys ...string) error {
	m.values.Delete(keys...)
	return nil
}

// NewMemoryStorage creates a process-local Storage.
func NewMemoryStorage() Storage {
	return &memoryStorage{values: collection.NewSyncMap[string, string]()}
}
