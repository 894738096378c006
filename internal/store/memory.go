package store

import (
	"context"
	"sync"
)

// Memory keeps state in process memory. Contents are lost on restart.
type Memory struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string]State)}
}

func (m *Memory) Load(_ context.Context, owner string) (State, error) {
	if err := checkOwner(owner); err != nil {
		return State{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[owner]
	if !ok {
		return State{}, ErrNotFound
	}
	return cloneState(st), nil
}

func (m *Memory) Save(_ context.Context, owner string, st State) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[owner] = cloneState(st)
	return nil
}

func (m *Memory) Clear(_ context.Context, owner string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, owner)
	return nil
}
