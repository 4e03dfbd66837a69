package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Values are deep-copied on the
// way in and out so callers cannot mutate stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*State, error) {
	if err := checkKey("Get", key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	state.Snapshot = state.Snapshot.Clone()
	return &state, nil
}

func (m *MemoryStore) Put(_ context.Context, state *State) error {
	if err := stamp("Put", state); err != nil {
		return err
	}
	stored := *state
	stored.Snapshot = state.Snapshot.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.Key] = stored
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	if err := checkKey("Delete", key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
