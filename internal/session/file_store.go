package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

type persistedSessions struct {
	Schema   int              `json:"schema"`
	Sessions map[string]State `json:"sessions"`
}

// FileStore keeps every session in one JSON document and rewrites it on each
// change. Suited to a single process.
type FileStore struct {
	mu       sync.Mutex
	path     string
	sessions map[string]State
}

func OpenFileStore(path string) (*FileStore, error) {
	state, err := loadSessions(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, sessions: state.Sessions}, nil
}

func (f *FileStore) Create(_ context.Context, s State) error {
	c, err := cloneState(s)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[s.ID]; ok {
		return ErrExists
	}
	f.sessions[s.ID] = c
	if err := f.saveLocked(); err != nil {
		delete(f.sessions, s.ID)
		return err
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, id string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	return cloneState(s)
}

func (f *FileStore) Update(_ context.Context, id string, fn UpdateFunc) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	cur, err := cloneState(prev)
	if err != nil {
		return State{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	f.sessions[id] = next
	if err := f.saveLocked(); err != nil {
		f.sessions[id] = prev
		return cur, err
	}
	return next, nil
}

func (f *FileStore) saveLocked() error {
	return saveSessions(f.path, persistedSessions{Schema: SchemaVersion, Sessions: f.sessions})
}

func loadSessions(path string) (persistedSessions, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistedSessions{Schema: SchemaVersion, Sessions: map[string]State{}}, nil
		}
		return persistedSessions{}, err
	}
	var state persistedSessions
	if err := json.Unmarshal(blob, &state); err != nil {
		return persistedSessions{}, err
	}
	if state.Sessions == nil {
		state.Sessions = map[string]State{}
	}
	return state, nil
}

func saveSessions(path string, state persistedSessions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cloneState(s State) (State, error) {
	blob, err := json.Marshal(s)
	if err != nil {
		return State{}, err
	}
	return decodeState(blob)
}
