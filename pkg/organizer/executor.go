package organizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/transaction"
	"github.com/galcurator/galcurator/pkg/trash"
)

// freeDiskSpaceFunc is swappable in tests to avoid depending on the real
// filesystem's free space.
var freeDiskSpaceFunc = trash.FreeDiskSpace

// Executor runs a Plan's moves through the transaction engine and
// records an undo log of completed moves. Organizer
// moves are always renames, staged and committed exactly like any other
// transactional operation.
type Executor struct {
	engine       *transaction.Engine
	undo         *UndoLog
	minFreeBytes int64
}

// NewExecutor builds an Executor against engine, recording undo entries
// to undo, refusing to execute if fewer than minFreeBytes remain free at
// the destination root.
func NewExecutor(engine *transaction.Engine, undo *UndoLog, minFreeBytes int64) *Executor {
	return &Executor{engine: engine, undo: undo, minFreeBytes: minFreeBytes}
}

// Execute runs preflight checks, then commits each move as a prepared
// transaction, updating the plan's move statuses in place and appending
// one undo entry per successful move. Execution stops at the first
// failure; moves after it remain MoveStatusPending.
func (e *Executor) Execute(plan *Plan) error {
	if err := preflight(plan, e.minFreeBytes); err != nil {
		return err
	}
	if err := os.MkdirAll(plan.DestRoot, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create destination root %q", plan.DestRoot)
	}

	for i := range plan.Moves {
		m := &plan.Moves[i]
		if err := os.MkdirAll(filepath.Dir(m.Dest), 0o755); err != nil {
			m.Status = MoveStatusFailed
			return errors.Wrapf(err, "unable to create category directory for %q", m.Dest)
		}

		checksum, err := fingerprint(m.Src)
		if err != nil {
			m.Status = MoveStatusFailed
			return errors.Wrapf(err, "unable to fingerprint %q before move", m.Src)
		}

		tx, err := e.engine.Prepare(kinds.OperationRename, m.Src, m.Dest)
		if err != nil {
			m.Status = MoveStatusFailed
			return err
		}
		if err := tx.Commit(); err != nil {
			m.Status = MoveStatusFailed
			return err
		}

		m.Status = MoveStatusCommitted
		if err := e.undo.Append(UndoEntry{
			PlanID:       plan.ID,
			OriginalPath: m.Src,
			MovedPath:    m.Dest,
			Checksum:     checksum,
			Timestamp:    time.Now(),
		}); err != nil {
			return errors.Wrap(err, "move committed but undo log write failed")
		}
	}
	return nil
}

// Rollback replays plan's undo entries in reverse, moving each entry's
// MovedPath back to OriginalPath as a fresh rename transaction. A
// checksum mismatch (the moved content changed since the move) aborts
// rollback of that entry rather than silently discarding the newer
// content.
func (e *Executor) Rollback(planID string) error {
	entries, err := e.undo.EntriesForPlan(planID)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })

	for _, entry := range entries {
		checksum, err := fingerprint(entry.MovedPath)
		if err != nil {
			return errors.Wrapf(err, "unable to fingerprint %q before rollback", entry.MovedPath)
		}
		if checksum != entry.Checksum {
			return kinds.Newf(kinds.ErrorKindPreconditionViolated, "refusing to roll back %q: content changed since the move", entry.MovedPath).WithPath(entry.MovedPath)
		}

		tx, err := e.engine.Prepare(kinds.OperationRename, entry.MovedPath, entry.OriginalPath)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// fingerprint hashes a file's content, or a directory's sorted relative
// file listing plus sizes, giving a cheap change-detection signature
// without hashing every byte of a large game install.
func fingerprint(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	if !info.IsDir() {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	var rels []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(rels)
	for _, rel := range rels {
		fi, err := os.Lstat(filepath.Join(path, rel))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s:%d\n", rel, fi.Size())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
