package service

import (
	"context"
	"fmt"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/port"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

type HistoryService struct {
	repo port.HistoryRepository
	now  func() time.Time
}

func NewHistoryService(repo port.HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo, now: time.Now}
}

// Record stores a successful compression. It is called after the compressed bytes have been produced and has no
// influence on them.
func (h *HistoryService) Record(ctx context.Context, originalFileName string, compressedSize int64,
	targetKB int) (domain.HistoryEntry, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("failed to generate history id: %w", err)
	}

	entry := domain.HistoryEntry{
		ID:               id,
		OriginalFileName: originalFileName,
		CompressedSize:   compressedSize,
		TargetKB:         targetKB,
		CreatedAt:        h.now().UTC(),
	}

	if err := h.repo.Save(ctx, entry); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("failed to save history entry: %w", err)
	}

	log.Ctx(ctx).Debug().Str("historyId", id.String()).Str("file", originalFileName).Msg("recorded compression")

	return entry, nil
}

func (h *HistoryService) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	return h.repo.List(ctx)
}

func (h *HistoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return h.repo.Delete(ctx, id)
}

func (h *HistoryService) Clear(ctx context.Context) error {
	return h.repo.Clear(ctx)
}
