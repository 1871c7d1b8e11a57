package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPolling(t *testing.T, root string, recursive bool) *PollingWatcher {
	t.Helper()
	w := NewPollingWatcher(50*time.Millisecond, recursive)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})

	require.NoError(t, w.Start(ctx, root))
	return w
}

func nextPolled(t *testing.T, w *PollingWatcher) FileEvent {
	t.Helper()
	select {
	case event := <-w.Events():
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for polled event")
	}
	return FileEvent{}
}

func TestPollingWatcher_DetectsFileCreation(t *testing.T) {
	// Given: a temp directory and polling watcher
	root := t.TempDir()
	w := startPolling(t, root, false)

	// When: a new file is created
	target := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	// Then: a create event with the absolute path is detected
	event := nextPolled(t, w)
	assert.Equal(t, OpCreate, event.Operation)
	assert.Equal(t, target, event.Path)
}

func TestPollingWatcher_DetectsFileModification(t *testing.T) {
	// Given: a temp directory with an existing file
	root := t.TempDir()
	target := filepath.Join(root, "existing.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	w := startPolling(t, root, false)

	// When: the file grows
	appendTo(t, target, "more data")

	// Then: a modify event is detected
	event := nextPolled(t, w)
	assert.Equal(t, OpModify, event.Operation)
	assert.Equal(t, target, event.Path)
}

func TestPollingWatcher_DetectsFileDeletion(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "gone.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	w := startPolling(t, root, false)

	require.NoError(t, os.Remove(target))

	event := nextPolled(t, w)
	assert.Equal(t, OpDelete, event.Operation)
	assert.Equal(t, target, event.Path)
}

func TestPollingWatcher_NonRecursiveSkipsNestedFiles(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	w := startPolling(t, root, false)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.txt"), []byte("x"), 0o644))

	event := nextPolled(t, w)
	assert.Equal(t, filepath.Join(root, "top.txt"), event.Path)
}

func TestPollingWatcher_RecursiveSeesNestedFiles(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	w := startPolling(t, root, true)

	deep := filepath.Join(sub, "deep.txt")
	require.NoError(t, os.WriteFile(deep, []byte("x"), 0o644))

	event := nextPolled(t, w)
	assert.Equal(t, OpCreate, event.Operation)
	assert.Equal(t, deep, event.Path)
}

func TestPollingWatcher_StartFailsForMissingRoot(t *testing.T) {
	w := NewPollingWatcher(50*time.Millisecond, false)
	defer func() { _ = w.Stop() }()

	err := w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
}

func TestPollingWatcher_StopIsIdempotent(t *testing.T) {
	w := NewPollingWatcher(50*time.Millisecond, false)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestPollingWatcher_IgnoresPermissionChanges(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "existing.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	w := startPolling(t, root, false)

	require.NoError(t, os.Chmod(target, 0o600))

	noEvent(t, w, 300*time.Millisecond, func(FileEvent) bool { return true })
}
