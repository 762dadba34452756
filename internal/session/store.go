package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
)

// UpdateFunc computes the next state from the stored one.
type UpdateFunc func(State) (State, error)

type Store interface {
	Create(ctx context.Context, s State) error
	Get(ctx context.Context, id string) (State, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (State, error)
}

// MemoryStore keeps encoded sessions so callers never share slices or
// pointers with the stored copy.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Create(_ context.Context, s State) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return ErrExists
	}
	m.sessions[s.ID] = blob
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	m.mu.RLock()
	blob, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return State{}, ErrNotFound
	}
	return decodeState(blob)
}

func (m *MemoryStore) Update(_ context.Context, id string, fn UpdateFunc) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	cur, err := decodeState(blob)
	if err != nil {
		return State{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	out, err := json.Marshal(next)
	if err != nil {
		return cur, err
	}
	m.sessions[id] = out
	return next, nil
}

func decodeState(blob []byte) (State, error) {
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return State{}, err
	}
	return s, nil
}
