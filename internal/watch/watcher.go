// Package watch re-runs a callback whenever a stack descriptor file
// changes on disk.
//
// Editors commonly save via rename (write temp file, rename over the
// original), which replaces the watched inode. The watcher therefore
// watches the file's parent directory and filters events down to the
// descriptor path, so a replaced file keeps being watched without
// re-registration races.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events a single save produces
// (create, multiple writes, chmod) into one callback invocation.
const debounceDelay = 300 * time.Millisecond

// OnChange is invoked after the descriptor has changed and the event
// burst has settled. A returned error is logged by the caller but does
// not stop the watch loop.
type OnChange func(ctx context.Context) error

// Watcher monitors a single descriptor file.
type Watcher struct {
	path    string
	dir     string
	watcher *fsnotify.Watcher

	// Errs receives callback errors so the caller can surface them
	// without terminating the loop.
	Errs chan error
}

// New creates a watcher for the descriptor at path.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		path:    abs,
		dir:     dir,
		watcher: fsw,
		Errs:    make(chan error, 1),
	}, nil
}

// Close releases the underlying file watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks, invoking onChange after each settled change to the
// descriptor, until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context, onChange OnChange) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	// The timer channel is nil until the first relevant event, so the
	// select ignores it.
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("file watcher closed unexpectedly")
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceDelay)
			}

		case <-fire:
			if err := onChange(ctx); err != nil {
				select {
				case w.Errs <- err:
				default:
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("file watcher closed unexpectedly")
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}

// relevant reports whether the event concerns the watched descriptor and
// represents a content change.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}
