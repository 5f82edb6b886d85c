package env

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/streamspace-dev/kioto/kerr"
)

// Watcher wraps fsnotify to answer one question for an external build
// loop: "did anything change in this source directory?" It is not used
// for hot-reloading a running environment (explicitly out of scope) —
// only Load ever populates a Store, and only in response to an
// explicit call.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// NewWatcher begins watching sourceRoot/label for filesystem events.
func NewWatcher(sourceRoot, label string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, kerr.IOError(err.Error())
	}
	dir := filepath.Join(sourceRoot, label)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, kerr.IOError(err.Error())
	}
	return &Watcher{fsw: fsw}, nil
}

// WaitForChange blocks until a filesystem event is observed in the
// watched directory or timeout elapses, returning whether a change
// occurred. It only sees events that happen after NewWatcher was
// called; it cannot answer whether the tree changed before that point.
func (w *Watcher) WaitForChange(timeout time.Duration) (bool, error) {
	select {
	case _, ok := <-w.fsw.Events:
		return ok, nil
	case err := <-w.fsw.Errors:
		return false, kerr.IOError(err.Error())
	case <-time.After(timeout):
		return false, nil
	}
}

// Close releases the underlying OS watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
