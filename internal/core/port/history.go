package port

import (
	"context"
	"kbfit/internal/core/domain"

	"github.com/gofrs/uuid/v5"
)

type HistoryRepository interface {
	Save(ctx context.Context, entry domain.HistoryEntry) error
	// List returns all entries, newest first.
	List(ctx context.Context) ([]domain.HistoryEntry, error)
	// Delete removes a single entry, failing with domain.ErrHistoryNotFound for unknown ids.
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
}

// History is the history service as used by the front ends.
type History interface {
	Record(ctx context.Context, originalFileName string, compressedSize int64, targetKB int) (domain.HistoryEntry,
		error)
	List(ctx context.Context) ([]domain.HistoryEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
}
