package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidator) InvalidatePath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingInvalidator) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

func TestWatcherInvalidatesOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	inv := &recordingInvalidator{}

	w, err := New(Config{BasePath: dir, Cache: inv, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	target := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))

	require.Eventually(t, func() bool {
		for _, p := range inv.snapshot() {
			if p == target {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestWatcherSkipsIgnoredDirectories(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(gitDir, 0o755))

	inv := &recordingInvalidator{}
	w, err := New(Config{BasePath: dir, Cache: inv, Debounce: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	ignored := filepath.Join(gitDir, "index")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0o644))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, inv.snapshot())
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{BasePath: dir, Cache: &recordingInvalidator{}})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
