package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// startWatch runs the watcher on its own goroutine and returns a wait
// function yielding the terminal error.
func startWatch(t *testing.T, service *WatchService, ctx context.Context, cfg domain.RunConfig) func() error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- service.Watch(ctx, cfg)
	}()
	// Give the watcher a moment to register before events are produced.
	time.Sleep(50 * time.Millisecond)
	return func() error {
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
			return nil
		}
	}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return condition()
}

// TestWatcher_RunsAfterSettle verifies a filesystem event followed by the
// debounce window triggers exactly one discover-and-run pass.
func TestWatcher_RunsAfterSettle(t *testing.T) {
	input := t.TempDir()
	pipeline := &mockPipeline{}
	service := NewWatchService(pipeline, 50*time.Millisecond)

	cfg := scanConfig(input)
	ctx, cancel := context.WithCancel(context.Background())
	wait := startWatch(t, service, ctx, cfg)

	writeFile(t, filepath.Join(input, "a.jpg"), "jpg")
	require.True(t, waitFor(t, 3*time.Second, func() bool { return pipeline.RunCount() >= 1 }))

	cancel()
	assert.ErrorIs(t, wait(), context.Canceled)
	assert.GreaterOrEqual(t, pipeline.DiscoverCount(), 1)
}

// TestWatcher_EmptyRootWaits verifies a settle without images is skipped
// quietly and the watcher keeps running.
func TestWatcher_EmptyRootWaits(t *testing.T) {
	input := t.TempDir()
	pipeline := &mockPipeline{discoverErr: fmt.Errorf("%w under %s", domain.ErrNoImages, input)}
	service := NewWatchService(pipeline, 50*time.Millisecond)

	cfg := scanConfig(input)
	ctx, cancel := context.WithCancel(context.Background())
	wait := startWatch(t, service, ctx, cfg)

	writeFile(t, filepath.Join(input, "notes.txt"), "text")
	require.True(t, waitFor(t, 3*time.Second, func() bool { return pipeline.DiscoverCount() >= 1 }))
	assert.Equal(t, 0, pipeline.RunCount())

	cancel()
	assert.ErrorIs(t, wait(), context.Canceled)
}

// TestWatcher_RunFailureDoesNotStopWatching verifies a failed run is
// logged and the watcher picks up the next settle.
func TestWatcher_RunFailureDoesNotStopWatching(t *testing.T) {
	input := t.TempDir()
	pipeline := &mockPipeline{runErr: errors.New("disk full")}
	service := NewWatchService(pipeline, 50*time.Millisecond)

	cfg := scanConfig(input)
	ctx, cancel := context.WithCancel(context.Background())
	wait := startWatch(t, service, ctx, cfg)

	writeFile(t, filepath.Join(input, "a.jpg"), "jpg")
	require.True(t, waitFor(t, 3*time.Second, func() bool { return pipeline.RunCount() >= 1 }))

	writeFile(t, filepath.Join(input, "b.jpg"), "jpg")
	require.True(t, waitFor(t, 3*time.Second, func() bool { return pipeline.RunCount() >= 2 }))

	cancel()
	assert.ErrorIs(t, wait(), context.Canceled)
}

// TestWatcher_NewSubdirectoriesAreWatched verifies activity inside a
// folder created after the watch started still triggers a run.
func TestWatcher_NewSubdirectoriesAreWatched(t *testing.T) {
	input := t.TempDir()
	pipeline := &mockPipeline{}
	service := NewWatchService(pipeline, 50*time.Millisecond)

	cfg := scanConfig(input)
	ctx, cancel := context.WithCancel(context.Background())
	wait := startWatch(t, service, ctx, cfg)

	sub := filepath.Join(input, "20250423-HSN")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.True(t, waitFor(t, 3*time.Second, func() bool { return pipeline.RunCount() >= 1 }))
	first := pipeline.RunCount()

	writeFile(t, filepath.Join(sub, "a.jpg"), "jpg")
	require.True(t, waitFor(t, 3*time.Second, func() bool { return pipeline.RunCount() > first }))

	cancel()
	assert.ErrorIs(t, wait(), context.Canceled)
}

// TestWatcher_ExistingSubdirectoriesAreWatched verifies writes inside a
// folder that predates the watch still reset the debounce window and
// trigger a run.
func TestWatcher_ExistingSubdirectoriesAreWatched(t *testing.T) {
	input := t.TempDir()
	sub := filepath.Join(input, "20250423-HSN", "track01")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	pipeline := &mockPipeline{}
	service := NewWatchService(pipeline, 50*time.Millisecond)

	cfg := scanConfig(input)
	ctx, cancel := context.WithCancel(context.Background())
	wait := startWatch(t, service, ctx, cfg)

	writeFile(t, filepath.Join(sub, "a.jpg"), "jpg")
	require.True(t, waitFor(t, 3*time.Second, func() bool { return pipeline.RunCount() >= 1 }))

	cancel()
	assert.ErrorIs(t, wait(), context.Canceled)
}

// TestWatcher_MissingRootFails verifies watching a nonexistent root is an
// immediate error.
func TestWatcher_MissingRootFails(t *testing.T) {
	pipeline := &mockPipeline{}
	service := NewWatchService(pipeline, 50*time.Millisecond)

	cfg := scanConfig(filepath.Join(t.TempDir(), "gone"))
	err := service.Watch(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
}

func TestWatcher_DefaultDebounce(t *testing.T) {
	service := NewWatchService(&mockPipeline{}, 0)
	assert.Equal(t, DefaultWatchDebounce, service.debounce)
}
