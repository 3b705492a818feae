package main

import (
	"context"
	"kbfit/internal/core/domain"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	setDefaults()
	t.Cleanup(viper.Reset)
}

func TestRunWithoutFrontEnd(t *testing.T) {
	resetConfig(t)
	viper.Set("server.enabled", false)
	viper.Set("telegram.bot_token", "")

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	err := run(ctx)
	require.ErrorIs(t, err, errNoFrontEnd)
}

func TestRunUnknownEncoder(t *testing.T) {
	resetConfig(t)
	viper.Set("codec.encoder", "gif2000")

	err := run(t.Context())
	require.ErrorIs(t, err, domain.ErrEncoderUnavailable)
}

func TestRunServesUntilCancelled(t *testing.T) {
	resetConfig(t)
	viper.Set("server.addr", "127.0.0.1:0")
	viper.Set("history.path", filepath.Join(t.TempDir(), "history.jsonl"))

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestNewHistoryRepository(t *testing.T) {
	repo, closeRepo, err := newHistoryRepository("")
	require.NoError(t, err)
	assert.NotNil(t, repo)
	closeRepo()

	repo, closeRepo, err = newHistoryRepository(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)
	assert.NotNil(t, repo)
	closeRepo()
}
