package history

import (
	"context"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/port"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, name string, at time.Time) domain.HistoryEntry {
	t.Helper()

	id, err := uuid.NewV4()
	require.NoError(t, err)

	return domain.HistoryEntry{
		ID:               id,
		OriginalFileName: name,
		CompressedSize:   1234,
		TargetKB:         50,
		CreatedAt:        at,
	}
}

func repositories(t *testing.T) map[string]port.HistoryRepository {
	t.Helper()

	f, err := NewFileRepository(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return map[string]port.HistoryRepository{
		"memory": NewMemoryRepository(),
		"file":   f,
	}
}

func TestRepositories(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			older := entry(t, "older.png", base)
			newer := entry(t, "newer.png", base.Add(time.Minute))
			require.NoError(t, repo.Save(ctx, older))
			require.NoError(t, repo.Save(ctx, newer))

			list, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "newer.png", list[0].OriginalFileName)
			assert.Equal(t, "older.png", list[1].OriginalFileName)

			require.NoError(t, repo.Delete(ctx, older.ID))
			list, err = repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, newer.ID, list[0].ID)

			err = repo.Delete(ctx, older.ID)
			require.ErrorIs(t, err, domain.ErrHistoryNotFound)

			require.NoError(t, repo.Clear(ctx))
			list, err = repo.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestFileRepositoryReplay(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	repo, err := NewFileRepository(path)
	require.NoError(t, err)

	first := entry(t, "first.jpg", base)
	second := entry(t, "second.jpg", base.Add(time.Second))
	third := entry(t, "third.jpg", base.Add(2*time.Second))

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Clear(ctx))
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, third))
	require.NoError(t, repo.Delete(ctx, second.ID))
	require.NoError(t, repo.Close())

	reopened, err := NewFileRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, third.ID, list[0].ID)
	assert.True(t, third.CreatedAt.Equal(list[0].CreatedAt))
	assert.Equal(t, third.TargetKB, list[0].TargetKB)
}

func TestFileRepositorySkipsCorruptLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.jsonl")

	repo, err := NewFileRepository(path)
	require.NoError(t, err)
	kept := entry(t, "kept.png", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, kept))
	require.NoError(t, repo.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"op\":\"save\",\"entry\":{\"id\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := NewFileRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)
}
