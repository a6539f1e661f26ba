package ridelog

import (
	"context"
	"sync"

	"github.com/example/taxi-dispatch/internal/models"
)

// Store keeps the ride log, newest first.
type Store interface {
	Append(ctx context.Context, e models.LogEntry) error
	List(ctx context.Context, limit int) ([]models.LogEntry, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries []models.LogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(ctx context.Context, e models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]models.LogEntry{e}, m.entries...)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, limit int) ([]models.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]models.LogEntry, limit)
	copy(out, m.entries[:limit])
	return out, nil
}
