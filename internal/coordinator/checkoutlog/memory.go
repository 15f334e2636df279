package checkoutlog

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository keeps the log in process. Used when no database path is
// configured and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string][]Entry)}
}

func (r *MemoryRepository) Save(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.CheckoutID] = append(r.entries[entry.CheckoutID], *entry)
	return nil
}

func (r *MemoryRepository) GetLatest(_ context.Context, checkoutID string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.entries[checkoutID]
	if len(rows) == 0 {
		return nil, fmt.Errorf("memory: checkout %q: %w", checkoutID, ErrNotFound)
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

func (r *MemoryRepository) History(_ context.Context, checkoutID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.entries[checkoutID]
	if len(rows) == 0 {
		return nil, fmt.Errorf("memory: checkout %q: %w", checkoutID, ErrNotFound)
	}
	return append([]Entry(nil), rows...), nil
}
