package fsm

import (
	"context"
	"sync"
	"time"
)

// Store keeps one conversation state per chat.
type Store interface {
	Get(ctx context.Context, chatID int64) (State, bool, error)
	Set(ctx context.Context, chatID int64, state State) error
	Delete(ctx context.Context, chatID int64) error
}

type MemoryStore struct {
	states map[int64]State
	mu     *sync.RWMutex
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[int64]State),
		mu:     &sync.RWMutex{},
		now:    time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[chatID]
	return state, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, chatID int64, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.UpdatedAt = m.now()
	m.states[chatID] = state
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, chatID)
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
