package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of file events into one run.
const watchDebounce = 100 * time.Millisecond

// Watch lints paths, reports the result through onResult, then re-lints
// whenever a Python file under them is written or created. Unchanged
// files are served from a content hash cache. Watch blocks until ctx is
// cancelled.
func (e *Engine) Watch(ctx context.Context, paths []string, onResult func(*Result)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, p := range paths {
		if err := e.watchDirRecursive(watcher, p); err != nil {
			return err
		}
	}

	run := func() error {
		result, err := e.Lint(ctx, paths)
		if err != nil {
			return err
		}
		onResult(result)
		return nil
	}
	if err := run(); err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := e.watchDirRecursive(watcher, event.Name); err != nil {
					e.logger.Error("failed to watch new directory", "dir", event.Name, "error", err)
				}
				continue
			}
			if !isPythonFile(event.Name) {
				continue
			}

			e.logger.Debug("file changed", "file", event.Name)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := run(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				e.logger.Error("re-lint failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds root, or the directory holding it when root is a
// file, and every non-excluded subdirectory to the watcher.
func (e *Engine) watchDirRecursive(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(root))
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && e.excluded(root, p) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
