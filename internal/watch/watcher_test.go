package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatcher runs a watcher against path and returns a counter of
// callback invocations.
func startWatcher(t *testing.T, ctx context.Context, path string) *atomic.Int32 {
	t.Helper()

	w, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	var calls atomic.Int32
	go func() {
		_ = w.Run(ctx, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()
	return &calls
}

// waitForCalls polls until the counter reaches want or the deadline
// passes.
func waitForCalls(t *testing.T, calls *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if calls.Load() >= want {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("callback invoked %d times, want at least %d", calls.Load(), want)
}

// TestWatcher_WriteTriggersCallback verifies an in-place write fires the
// callback once after the debounce window.
func TestWatcher_WriteTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "botstack.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: cosmetic-bot\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := startWatcher(t, ctx, path)

	require.NoError(t, os.WriteFile(path, []byte("name: cosmetic-bot-v2\n"), 0o644))
	waitForCalls(t, calls, 1)
}

// TestWatcher_RenameReplace verifies the editor save pattern (write temp,
// rename over original) still triggers the callback.
func TestWatcher_RenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "botstack.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: cosmetic-bot\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := startWatcher(t, ctx, path)

	tmp := filepath.Join(dir, ".botstack.yml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("name: cosmetic-bot-v2\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	waitForCalls(t, calls, 1)
}

// TestWatcher_IgnoresSiblings verifies changes to other files in the same
// directory do not fire the callback.
func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "botstack.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: cosmetic-bot\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := startWatcher(t, ctx, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes\n"), 0o644))
	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

// TestWatcher_ContextCancel verifies Run returns when the context is
// cancelled.
func TestWatcher_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "botstack.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: cosmetic-bot\n"), 0o644))

	w, err := New(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
