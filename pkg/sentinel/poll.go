package sentinel

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/pathsandbox"
)

// DefaultPollInterval is the polling period applied when none is configured.
const DefaultPollInterval = 600 * time.Second

// poller implements the polling fallback watcher. It maintains an
// in-memory Snapshot of every file under its roots and, each interval,
// diffs a fresh walk against it, forwarding the delta as handleEvent
// calls and persisting the new snapshot.
type poller struct {
	roots        []string
	interval     time.Duration
	handleEvent  func(path string, kind eventKind)
	initialFiles map[string]map[string]time.Time // root -> path -> mtime
}

func newPoller(roots []string, interval time.Duration, handleEvent func(path string, kind eventKind)) *poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &poller{roots: roots, interval: interval, handleEvent: handleEvent, initialFiles: make(map[string]map[string]time.Time)}
	for _, root := range roots {
		if snap, ok := loadSnapshot(root); ok {
			p.initialFiles[root] = snap.Files
		}
	}
	return p
}

// walkFiles builds path -> mtime for every regular file under root,
// honoring the sandbox filter.
func walkFiles(root string) (map[string]time.Time, error) {
	resolvedRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	files := make(map[string]time.Time)
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() {
			if path != root && ignoredBaseNames[filepath.Base(path)] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(path) == snapshotFileName {
			return nil
		}
		if !pathsandbox.IsSafe(path, resolvedRoot) {
			return nil
		}
		files[path] = info.ModTime()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// poll performs one scan-and-diff pass over root, forwarding every added
// or modified file as an event, every removed file as a deleted event,
// and persisting the resulting snapshot.
func (p *poller) poll(root string) error {
	existing := p.initialFiles[root]

	fresh, err := walkFiles(root)
	if err != nil {
		return errors.Wrapf(err, "unable to walk root %q", root)
	}

	for path, mtime := range fresh {
		prev, ok := existing[path]
		if !ok {
			p.handleEvent(path, eventCreated)
		} else if !prev.Equal(mtime) {
			p.handleEvent(path, eventModified)
		}
	}
	for path := range existing {
		if _, ok := fresh[path]; !ok {
			p.handleEvent(path, eventDeleted)
		}
	}

	p.initialFiles[root] = fresh
	return saveSnapshot(root, Snapshot{Files: fresh})
}

// run polls every root on Interval until ctx is cancelled. The first poll
// fires immediately.
func (p *poller) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			for _, root := range p.roots {
				if err := p.poll(root); err != nil {
					continue
				}
				select {
				case <-ctx.Done():
					return
				default:
				}
			}
			timer.Reset(p.interval)
		}
	}
}
