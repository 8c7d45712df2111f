// Package watch re-runs generation when a spec file changes on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultDebounce  = 200 * time.Millisecond
	DefaultCacheSize = 64
)

// ChangeFunc is called with the path of a spec whose content changed
type ChangeFunc func(ctx context.Context, path string) error

// Options tunes a Watcher
type Options struct {
	Debounce  time.Duration
	CacheSize int
}

// Watcher watches the directories holding a set of spec files. Editors often
// replace a file rather than write it, so the directory is watched and events
// are filtered by name.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	onChange ChangeFunc
	debounce time.Duration
	digests  *lru.Cache[string, [sha256.Size]byte]
	logger   zerolog.Logger
}

// New creates a watcher for paths
func New(paths []string, onChange ChangeFunc, opts Options, logger zerolog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	digests, err := lru.New[string, [sha256.Size]byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest cache: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		files:    map[string]bool{},
		onChange: onChange,
		debounce: opts.Debounce,
		digests:  digests,
		logger:   logger.With().Str("component", "watch").Logger(),
	}

	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	return w, nil
}

// Files returns the watched files, sorted
func (w *Watcher) Files() []string {
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Start checks every file once, then blocks handling change events until ctx
// is cancelled. Errors from the change callback are logged and watching
// continues.
func (w *Watcher) Start(ctx context.Context) error {
	for _, f := range w.Files() {
		w.check(ctx, f)
	}

	pending := map[string]bool{}
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !w.matches(event) {
				continue
			}
			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("spec changed")

			pending[filepath.Clean(event.Name)] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			sort.Strings(files)
			clear(pending)

			for _, f := range files {
				w.check(ctx, f)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				w.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

func (w *Watcher) check(ctx context.Context, path string) {
	if _, err := w.Check(ctx, path); err != nil {
		w.logger.Error().Err(err).Str("path", path).Msg("regeneration failed")
	}
}

// Check calls the change callback for path unless its content digest matches
// the last one successfully handled. It reports whether the callback ran. A
// file that cannot be read, for example mid-save, is skipped.
func (w *Watcher) Check(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Debug().Err(err).Str("path", path).Msg("spec not readable, skipping")
		return false, nil
	}

	digest := sha256.Sum256(data)
	if prev, ok := w.digests.Get(path); ok && prev == digest {
		w.logger.Debug().Str("path", path).Msg("content unchanged, skipping")
		return false, nil
	}

	if err := w.onChange(ctx, path); err != nil {
		return true, err
	}
	w.digests.Add(path, digest)
	return true, nil
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) matches(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}
