package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// cacheWatcher calls onChange whenever the cache file is written, replaced
// or removed. The directory is watched rather than the file so atomic
// renames and first-time creation are seen.
type cacheWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func()
	logger   *slog.Logger
}

func newCacheWatcher(path string, onChange func()) (*cacheWatcher, error) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &cacheWatcher{
		path:     path,
		watcher:  watcher,
		onChange: onChange,
		logger:   slog.Default().With("component", "daemon.watcher"),
	}, nil
}

// Run delivers events until ctx is cancelled.
func (w *cacheWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *cacheWatcher) handleEvent(event fsnotify.Event) {
	// Temporary files from atomic saves live in the same directory.
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
		w.onChange()
	}
}
