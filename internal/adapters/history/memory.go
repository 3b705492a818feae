package history

import (
	"context"
	"fmt"
	"kbfit/internal/core/domain"
	"sort"
	"sync"

	"github.com/gofrs/uuid/v5"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]domain.HistoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[uuid.UUID]domain.HistoryEntry),
	}
}

func (r *MemoryRepository) Save(_ context.Context, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.ID] = entry
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sorted(r.entries), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrHistoryNotFound, id)
	}

	delete(r.entries, id)
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[uuid.UUID]domain.HistoryEntry)
	return nil
}

// sorted returns the entries newest first, ties broken by id for a stable order.
func sorted(entries map[uuid.UUID]domain.HistoryEntry) []domain.HistoryEntry {
	list := make([]domain.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID.String() < list[j].ID.String()
	})

	return list
}
