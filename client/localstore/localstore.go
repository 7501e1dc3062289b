// Package localstore is the client's durable key/value storage, the Go
// analogue of the browser's localStorage. Values are opaque strings; callers
// own serialization.
package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Storage keys used by the sync client.
const (
	KeyCategories   = "categories"
	KeyBackground   = "background"
	KeyPrefs        = "prefs"
	KeyDirty        = "dirty"
	KeyAccessToken  = "token"
	KeyTokenExpiry  = "tokenExpiry"
	KeyRefreshToken = "refreshToken"
	KeyLoggedOut    = "userLoggedOut"
)

// Store is durable string key/value storage.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

const stateFileName = "state.json"

// File persists all keys in one JSON file inside a state directory. Writes go
// through a temp file and rename so a crash never leaves a torn state file.
// A corrupt or missing file degrades to an empty store.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

var _ Store = (*File)(nil)

// OpenFile loads (or initializes) the state file under dir.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "[localstore.OpenFile] create state dir")
	}

	f := &File{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, errors.Wrap(err, "[localstore.OpenFile] read state file")
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		// Corrupt state starts over empty rather than failing startup.
		f.data = make(map[string]string)
	}
	if f.data == nil {
		f.data = make(map[string]string)
	}
	return f, nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	return value, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return f.flushLocked()
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return f.flushLocked()
}

func (f *File) flushLocked() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[localstore.File] marshal state")
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "[localstore.File] write temp state")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, "[localstore.File] rename state")
	}
	return nil
}

// Memory is an in-memory Store for tests.
type Memory struct {
	mu   sync.Mutex
	data map[string]string

	// FailWrites forces Set/Delete to return this error when non-nil.
	FailWrites error
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	return value, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.data, key)
	return nil
}
