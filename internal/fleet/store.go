package fleet

import (
	"context"
	"errors"
	"sync"

	"github.com/example/taxi-dispatch/internal/models"
)

var ErrNotFound = errors.New("vehicle not found")

// Store holds the fleet. Vehicle state changes only through explicit Put
// calls after a dispatcher confirms an assignment; the engine only reads.
type Store interface {
	List(ctx context.Context) ([]models.Vehicle, error)
	Get(ctx context.Context, id string) (models.Vehicle, error)
	Put(ctx context.Context, v models.Vehicle) error
	Delete(ctx context.Context, id string) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]models.Vehicle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vehicles: make(map[string]models.Vehicle)}
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return models.Vehicle{}, ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Put(ctx context.Context, v models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = v
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[id]; !ok {
		return ErrNotFound
	}
	delete(m.vehicles, id)
	return nil
}
