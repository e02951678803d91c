// Package transaction implements a finite-state transaction engine:
// prepare/commit/rollback over {rename, mkdir, copy, delete}, journaled
// for crash recovery and confined to a library root via pkg/pathsandbox.
package transaction

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/journal"
	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/logging"
	"github.com/galcurator/galcurator/pkg/pathsandbox"
	"github.com/galcurator/galcurator/pkg/trash"
)

// DefaultTimeout is the suggested per-transaction timeout (T_tx) governing
// staleness used by the recovery routine.
const DefaultTimeout = 5 * time.Minute

// Engine is constructed with a journal and a library root; every
// transaction it prepares is confined to that root.
type Engine struct {
	journal *journal.Journal
	trash   *trash.Trash
	root    string
	timeout time.Duration
	log     *logging.Logger
}

// NewEngine creates a transaction engine rooted at root, journaling
// through j and staging deletes through t.
func NewEngine(j *journal.Journal, t *trash.Trash, root string, log *logging.Logger) *Engine {
	return &Engine{journal: j, trash: t, root: root, timeout: DefaultTimeout, log: log.Sublogger("transaction")}
}

// SetTimeout overrides the default per-transaction timeout.
func (e *Engine) SetTimeout(d time.Duration) {
	e.timeout = d
}

// Tx is one in-flight or completed transaction.
type Tx struct {
	engine *Engine
	entry  journal.Entry
}

// TxID returns the transaction's identifier.
func (t *Tx) TxID() string { return t.entry.TxID }

// State returns the transaction's current FSM state.
func (t *Tx) State() kinds.TxState { return t.entry.State }

// FromEntry reconstructs a Tx handle from a previously-journaled entry, so
// that recovery can roll back a transaction found prepared-but-unfinished
// on a prior run.
func (e *Engine) FromEntry(entry journal.Entry) *Tx {
	return &Tx{engine: e, entry: entry}
}

func (e *Engine) validate(path string) error {
	if !pathsandbox.IsSafe(path, e.root) {
		return kinds.New(kinds.ErrorKindPathUnsafe, "path escapes library root").WithPath(path)
	}
	return nil
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// precheck runs the semantic pre-checks for each operation kind, including
// the cross-filesystem rejection for rename.
func precheck(op kinds.OperationKind, src, dest string) error {
	switch op {
	case kinds.OperationMkdir:
		if pathExists(src) {
			return kinds.New(kinds.ErrorKindPreconditionViolated, "mkdir target already exists").WithPath(src)
		}
	case kinds.OperationRename, kinds.OperationCopy:
		if dest == "" {
			return kinds.New(kinds.ErrorKindPreconditionViolated, "destination path is required").WithPath(src)
		}
		if pathExists(dest) {
			return kinds.New(kinds.ErrorKindPreconditionViolated, "destination already exists").WithPath(dest)
		}
		if !pathExists(src) {
			return kinds.New(kinds.ErrorKindPreconditionViolated, "source does not exist").WithPath(src)
		}
		if op == kinds.OperationRename {
			srcDev, err := deviceID(filepath.Dir(src))
			if err == nil {
				destDev, err := deviceID(filepath.Dir(dest))
				if err == nil && srcDev != destDev {
					return kinds.New(kinds.ErrorKindPreconditionViolated, "cross-filesystem rename is not supported").WithPath(dest)
				}
			}
		}
	case kinds.OperationDelete:
		if !pathExists(src) {
			return kinds.New(kinds.ErrorKindPreconditionViolated, "delete target does not exist").WithPath(src)
		}
	default:
		return kinds.New(kinds.ErrorKindPreconditionViolated, "unsupported operation kind")
	}
	return nil
}

// Prepare validates src (and dest, if present) under the library root,
// runs semantic pre-checks, and journals a new prepared entry. If the
// journal append fails, the returned transaction is in TxStateFailed (so
// it cannot be committed), no filesystem action has occurred, and the
// caller sees an ErrorKindJournalWriteFailed error: no filesystem
// mutation is ever attempted without a durable journal entry preceding it.
func (e *Engine) Prepare(op kinds.OperationKind, src, dest string) (*Tx, error) {
	if err := e.validate(src); err != nil {
		return nil, err
	}
	if dest != "" {
		if err := e.validate(dest); err != nil {
			return nil, err
		}
	}
	if err := precheck(op, src, dest); err != nil {
		return nil, err
	}

	now := time.Now()
	entry := journal.Entry{
		TxID:      journal.NewTxID(),
		Op:        op,
		Src:       src,
		Dest:      dest,
		State:     kinds.TxStatePrepared,
		Timestamp: now,
		TimeoutAt: now.Add(e.timeout),
	}

	if err := e.journal.Append(entry); err != nil {
		entry.State = kinds.TxStateFailed
		return &Tx{engine: e, entry: entry}, kinds.Wrap(kinds.ErrorKindJournalWriteFailed, err, "journal write failed; operation ABORTED")
	}

	return &Tx{engine: e, entry: entry}, nil
}

func (e *Engine) appendState(entry *journal.Entry, state kinds.TxState) error {
	entry.State = state
	entry.Timestamp = time.Now()
	return e.journal.Append(*entry)
}

// Commit executes the transaction's operation. It is only legal from
// TxStatePrepared.
func (t *Tx) Commit() error {
	if t.entry.State != kinds.TxStatePrepared {
		return kinds.Newf(kinds.ErrorKindPreconditionViolated, "cannot commit transaction in state %s", t.entry.State)
	}

	if err := t.execute(); err != nil {
		if jerr := t.engine.appendState(&t.entry, kinds.TxStateFailed); jerr != nil {
			t.engine.log.Error(errors.Wrap(jerr, "unable to journal failed state after commit error"))
		}
		return kinds.Wrap(kinds.ErrorKindOperationFailed, err, "commit failed")
	}

	if err := t.engine.appendState(&t.entry, kinds.TxStateCommitted); err != nil {
		return kinds.Wrap(kinds.ErrorKindJournalWriteFailed, err, "unable to journal committed state")
	}
	return nil
}

func (t *Tx) execute() error {
	switch t.entry.Op {
	case kinds.OperationMkdir:
		return os.Mkdir(t.entry.Src, 0o755)
	case kinds.OperationRename:
		return os.Rename(t.entry.Src, t.entry.Dest)
	case kinds.OperationCopy:
		return copyPath(t.entry.Src, t.entry.Dest)
	case kinds.OperationDelete:
		if err := t.engine.trash.EnsureHeadroom(); err != nil {
			return errors.Wrap(err, "unable to ensure trash headroom")
		}
		trashPath, err := t.engine.trash.Stage(t.entry.TxID, t.entry.Src)
		if err != nil {
			return err
		}
		t.entry.Dest = trashPath
		return nil
	default:
		return errors.New("unsupported operation kind")
	}
}

// Rollback reverses the transaction's operation. It is legal from any
// state with a journaled entry.
func (t *Tx) Rollback() error {
	if err := t.reverse(); err != nil {
		return kinds.Wrap(kinds.ErrorKindRollbackFailed, err, "rollback failed")
	}
	if err := t.engine.appendState(&t.entry, kinds.TxStateRolledBack); err != nil {
		return kinds.Wrap(kinds.ErrorKindRollbackFailed, err, "unable to journal rolled-back state")
	}
	return nil
}

func (t *Tx) reverse() error {
	switch t.entry.Op {
	case kinds.OperationRename:
		return os.Rename(t.entry.Dest, t.entry.Src)
	case kinds.OperationMkdir:
		return os.Remove(t.entry.Src)
	case kinds.OperationCopy:
		return os.RemoveAll(t.entry.Dest)
	case kinds.OperationDelete:
		return t.engine.trash.Restore(t.entry.Dest, t.entry.Src)
	default:
		return errors.New("unsupported operation kind")
	}
}

// copyPath copies a file or, recursively, a directory tree from src to
// dest.
func copyPath(src, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyDir(src, dest, info)
	}
	return copyFile(src, dest, info)
}

func copyDir(src, dest string, info os.FileInfo) error {
	if err := os.MkdirAll(dest, info.Mode()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcChild := filepath.Join(src, entry.Name())
		destChild := filepath.Join(dest, entry.Name())
		childInfo, err := entry.Info()
		if err != nil {
			return err
		}
		if childInfo.IsDir() {
			if err := copyDir(srcChild, destChild, childInfo); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcChild, destChild, childInfo); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dest string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
