package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
)

// FileStorage persists session fields as a JSON document at an afs URL,
// while serving reads from memory. It is a lightweight way to survive
// process restarts in CLI or single-host services.
type FileStorage struct {
	mu     sync.RWMutex
	URL    string
	fs     afs.Service
	values map[string]string
}

type fileSnapshot struct {
	Values map[string]string `json:"values"`
}

// NewFileStorage creates a Storage persisted at URL, e.g. file:///home/u/.storefront/session.json
// or mem://localhost/session.json. A missing or unreadable document starts an empty storage.
func NewFileStorage(URL string) *FileStorage {
	ret := &FileStorage{URL: URL, fs: afs.New(), values: map[string]string{}}
	_ = ret.load(context.Background())
	return ret
}

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStorage) SetAll(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, value := range values {
		f.values[key] = value
	}
	return f.save(context.Background())
}

func (f *FileStorage) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.save(context.Background())
}

func (f *FileStorage) save(ctx context.Context) error {
	data, err := json.MarshalIndent(fileSnapshot{Values: f.values}, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist session at %v: %w", f.URL, err)
	}
	return nil
}

func (f *FileStorage) load(ctx context.Context) error {
	ok, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !ok {
		return err
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return err
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return err
	}
	for k, v := range snap.Values {
		f.values[k] = v
	}
	return nil
}
