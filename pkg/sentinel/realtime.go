package sentinel

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/logging"
)

// realtimeWatcher wraps fsnotify.Watcher with recursive directory tracking:
// fsnotify only watches the directories explicitly added to it, so every
// root is walked at startup and every newly created directory is added on
// the fly.
type realtimeWatcher struct {
	watcher     *fsnotify.Watcher
	roots       []string
	handleEvent func(path string, kind eventKind)
	log         *logging.Logger
}

// newRealtimeWatcher constructs a watcher covering every root. It returns
// an error if native watch initialization fails, which the caller should
// treat as a signal to fall back to the polling watcher.
func newRealtimeWatcher(roots []string, handleEvent func(path string, kind eventKind), log *logging.Logger) (*realtimeWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize native filesystem watch")
	}

	w := &realtimeWatcher{watcher: fsw, roots: roots, handleEvent: handleEvent, log: log}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "unable to watch root %q", root)
		}
	}
	return w, nil
}

// addRecursive registers watches on root and every directory beneath it.
func (w *realtimeWatcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if filepath.Base(path) != filepath.Base(root) && ignoredBaseNames[filepath.Base(path)] {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// run consumes fsnotify events until ctx is cancelled, classifying each
// into an eventKind and forwarding it to handleEvent. Newly created
// directories are added to the watch set so the tree stays covered.
func (w *realtimeWatcher) run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.dispatch(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("realtime watch error: %v", err)
		}
	}
}

func (w *realtimeWatcher) dispatch(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.handleEvent(event.Name, eventDeleted)
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.log.Warnf("unable to extend watch to %q: %v", event.Name, err)
			}
		}
		w.handleEvent(event.Name, eventCreated)
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Chmod != 0:
		w.handleEvent(event.Name, eventModified)
	}
}
