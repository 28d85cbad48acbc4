package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReloader struct {
	calls atomic.Int32
	err   error
}

func (f *fakeReloader) Reload(context.Context) error {
	f.calls.Add(1)
	return f.err
}

// startWatcher runs w until the test ends.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "parable.db"), &fakeReloader{})
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnDatabaseWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "parable.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("v1"), 0o600))

	reloader := &fakeReloader{}
	w, err := New(dbPath, reloader, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("v2"), 0o600))

	assert.Eventually(t, func() bool { return w.Reloads() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "parable.db")
	require.NoError(t, os.WriteFile(dbPath, nil, 0o600))

	reloader := &fakeReloader{}
	w, err := New(dbPath, reloader, WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w)

	for i := range 5 {
		require.NoError(t, os.WriteFile(dbPath, []byte{byte(i)}, 0o600))
	}

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 1, reloader.calls.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "parable.db")

	reloader := &fakeReloader{}
	w, err := New(dbPath, reloader, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, reloader.calls.Load())
}

func TestWatcher_FailedReloadIsNotCounted(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "parable.db")

	reloader := &fakeReloader{err: errors.New("database is locked")}
	w, err := New(dbPath, reloader, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o600))

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, w.Reloads())
}

func TestWatcher_Relevant(t *testing.T) {
	w := &Watcher{names: map[string]bool{"parable.db": true, "parable.db-wal": true}}

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write to db", fsnotify.Event{Name: "/d/parable.db", Op: fsnotify.Write}, true},
		{"create wal", fsnotify.Event{Name: "/d/parable.db-wal", Op: fsnotify.Create}, true},
		{"rename db", fsnotify.Event{Name: "/d/parable.db", Op: fsnotify.Rename}, true},
		{"chmod db", fsnotify.Event{Name: "/d/parable.db", Op: fsnotify.Chmod}, false},
		{"remove db", fsnotify.Event{Name: "/d/parable.db", Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: "/d/other.db", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.ev))
		})
	}
}

func TestWithDebounce_IgnoresNonPositive(t *testing.T) {
	w := &Watcher{debounce: DefaultDebounce}
	WithDebounce(0)(w)
	assert.Equal(t, DefaultDebounce, w.debounce)
}
