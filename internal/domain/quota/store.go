package quota

import (
	"context"
	"sync"
)

// State is the durable usage counter for one calendar day.
type State struct {
	DateKey   string `json:"date_key"`
	CallCount int    `json:"call_count"`
}

// Store persists the usage counter. A store that has never been written
// returns the zero State.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// HistoryStore is a Store that keeps one row per day.
type HistoryStore interface {
	Store
	History(ctx context.Context, limit int) ([]State, error)
}

// MemoryStore keeps the counter in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	saves int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (m *MemoryStore) Load(context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
