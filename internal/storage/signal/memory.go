package signal

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/quantfolio/quantfolio/internal/core"
)

// MemoryStore is a bounded in-memory signal store. When full, the oldest
// signals are evicted first.
type MemoryStore struct {
	mu      sync.RWMutex
	signals []core.Signal
	maxSize int
}

// NewMemoryStore creates an in-memory store holding at most maxSize signals.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		signals: make([]core.Signal, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a signal to the store and returns it with its assigned ID.
func (m *MemoryStore) Save(ctx context.Context, sig core.Signal) (core.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sig.ID = uuid.NewString()
	m.signals = append(m.signals, sig)

	if len(m.signals) > m.maxSize {
		m.signals = m.signals[len(m.signals)-m.maxSize:]
	}
	return sig, nil
}

// GetByID retrieves a signal by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.signals {
		if m.signals[i].ID == id {
			sig := m.signals[i]
			return &sig, nil
		}
	}
	return nil, core.ErrNotFound
}

// List returns signals matching the filter, oldest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.Signal{}
	for _, sig := range m.signals {
		if matches(sig, filter) {
			result = append(result, sig)
		}
	}

	if filter.Offset >= len(result) {
		return []core.Signal{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Count returns the count of matching signals.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sig := range m.signals {
		if matches(sig, filter) {
			count++
		}
	}
	return count, nil
}

func matches(sig core.Signal, filter ListFilter) bool {
	if filter.Ticker != "" && sig.Ticker != filter.Ticker {
		return false
	}
	if filter.Strategy != "" && sig.Strategy != filter.Strategy {
		return false
	}
	if filter.Action != "" && sig.Action != filter.Action {
		return false
	}
	if !filter.From.IsZero() && sig.GeneratedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && sig.GeneratedAt.After(filter.To) {
		return false
	}
	return true
}
