package sweepers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/price-standard/price-service/internal/storage"
)

func TestOutputSweeperSweep(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	files := map[string]time.Time{
		"outputs/old.xlsx":    now.Add(-48 * time.Hour),
		"outputs/recent.xlsx": now.Add(-1 * time.Hour),
		"uploads/old.xlsx":    now.Add(-48 * time.Hour),
	}
	for key, mtime := range files {
		require.NoError(t, store.Put(ctx, key, []byte(key), &storage.Metadata{ContentType: storage.ContentTypeXLSX}))
		require.NoError(t, os.Chtimes(filepath.Join(store.GetBasePath(), filepath.FromSlash(key)), mtime, mtime))
	}

	logger := zerolog.Nop()
	sweeper := NewOutputSweeper(store, &logger, time.Hour, 24*time.Hour)
	sweeper.Now = func() time.Time { return now }

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, err := store.Exists(ctx, "outputs/old.xlsx")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.Exists(ctx, "outputs/recent.xlsx")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "uploads/old.xlsx")
	require.NoError(t, err)
	assert.True(t, exists, "only outputs are swept")

	removed, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestOutputSweeperStop(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	logger := zerolog.Nop()
	sweeper := NewOutputSweeper(store, &logger, time.Millisecond, time.Hour)

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()

	sweeper.Stop()
	sweeper.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestOutputSweeperContextCancel(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	logger := zerolog.Nop()
	sweeper := NewOutputSweeper(store, &logger, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
