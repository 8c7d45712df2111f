package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recorder) onChange(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, path)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func writeSpec(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcher_Check(t *testing.T) {
	// Test plan:
	// - the first check always runs the callback
	// - unchanged content is skipped
	// - changed content runs the callback again
	// - an unreadable file is skipped without error

	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	writeSpec(t, path, "openapi: 3.0.0")

	rec := &recorder{}
	w, err := New([]string{path}, rec.onChange, Options{}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()

	ran, err := w.Check(ctx, path)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = w.Check(ctx, path)
	require.NoError(t, err)
	assert.False(t, ran)

	writeSpec(t, path, "openapi: 3.0.1")
	ran, err = w.Check(ctx, path)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = w.Check(ctx, filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, ran)

	assert.Equal(t, []string{path, path}, rec.calls)
}

func TestWatcher_CheckCallbackError(t *testing.T) {
	// Test plan:
	// - callback errors are returned
	// - unchanged content is handled again after a failure
	// - once the callback succeeds unchanged content is skipped
	path := filepath.Join(t.TempDir(), "api.yaml")
	writeSpec(t, path, "x")

	rec := &recorder{err: errors.New("generation failed")}
	w, err := New([]string{path}, rec.onChange, Options{}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()

	ran, err := w.Check(ctx, path)
	assert.True(t, ran)
	assert.EqualError(t, err, "generation failed")

	ran, err = w.Check(ctx, path)
	assert.True(t, ran)
	assert.EqualError(t, err, "generation failed")

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	ran, err = w.Check(ctx, path)
	assert.True(t, ran)
	assert.NoError(t, err)

	ran, err = w.Check(ctx, path)
	assert.False(t, ran)
	assert.NoError(t, err)

	assert.Equal(t, 3, rec.count())
}

func TestWatcher_Matches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	writeSpec(t, path, "x")

	w, err := New([]string{path}, (&recorder{}).onChange, Options{}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to spec", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"spec recreated", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"spec renamed", fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{"chmod only", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"removed", fsnotify.Event{Name: path, Op: fsnotify.Remove}, false},
		{"sibling file", fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.matches(tt.event))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, (&recorder{}).onChange, Options{}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New([]string{filepath.Join(t.TempDir(), "missing", "api.yaml")}, (&recorder{}).onChange, Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestWatcher_Start(t *testing.T) {
	// Test plan:
	// - Start runs the callback once for the initial content
	// - a write is picked up after the debounce
	// - writes to other files in the directory are ignored
	// - cancelling the context stops the watcher

	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	writeSpec(t, path, "v1")

	rec := &recorder{}
	w, err := New([]string{path}, rec.onChange, Options{Debounce: 20 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	writeSpec(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeSpec(t, path, "v2")
	require.Eventually(t, func() bool { return rec.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
