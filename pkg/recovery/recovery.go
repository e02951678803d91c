// Package recovery implements the boot-time journal replay and doomsday
// fuse: before any write API is accepted, stale prepared transactions are
// rolled back automatically, active ones are left for manual inspection,
// and any unhandled failure during the pass trips a process-wide
// read-only fuse.
package recovery

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/journal"
	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/logging"
)

// Fuse is the single process-wide read-only flag. Once tripped it never
// resets automatically; only explicit operator action (a fresh process
// restart after fixing the underlying problem) clears it.
type Fuse struct {
	tripped atomic.Bool
	reason  atomic.Value // string
}

// Trip sets the fuse, recording why.
func (f *Fuse) Trip(reason string) {
	f.reason.Store(reason)
	f.tripped.Store(true)
}

// Tripped reports whether writes are currently blocked.
func (f *Fuse) Tripped() bool {
	return f.tripped.Load()
}

// Reason returns the last trip reason, or "" if the fuse has never been
// tripped.
func (f *Fuse) Reason() string {
	if v, ok := f.reason.Load().(string); ok {
		return v
	}
	return ""
}

// CheckWrite is the single gate every write-API endpoint must call before
// doing anything. It is the one place that decides whether a write is
// rejected.
func (f *Fuse) CheckWrite() error {
	if f.Tripped() {
		return kinds.Newf(kinds.ErrorKindServiceUnavailable, "core is in read-only mode: %s", f.Reason())
	}
	return nil
}

// Rollback is the function signature the transaction engine exposes for
// rolling back a journaled-but-unfinished transaction from its journal
// entry.
type Rollback func(entry journal.Entry) error

// Result summarizes one recovery pass.
type Result struct {
	RolledBack []journal.Entry
	Active     []journal.Entry
}

// Run performs the recovery routine against j, invoking rollback for every
// stale prepared transaction. On any unhandled error it trips fuse and
// returns the error; callers should treat a non-nil error as triggering
// the doomsday fuse (which Run has already done) rather than retrying.
func Run(j *journal.Journal, rollback Rollback, fuse *Fuse, log *logging.Logger) (Result, error) {
	sub := log.Sublogger("recovery")

	result, err := func() (res Result, rerr error) {
		defer func() {
			if r := recover(); r != nil {
				rerr = errors.Errorf("panic during recovery: %v", r)
				fuse.Trip(rerr.Error())
			}
		}()

		recovered, err := j.Recover(time.Now(), func(e journal.Entry) error {
			return rollback(e)
		})
		return Result{RolledBack: recovered.Stale, Active: recovered.Active}, err
	}()

	if err != nil {
		wrapped := kinds.Wrap(kinds.ErrorKindRecoveryFailed, err, "recovery failed")
		fuse.Trip(wrapped.Error())
		sub.Error(wrapped)
		return result, wrapped
	}

	if len(result.Active) > 0 {
		sub.Warnf("%d active prepared transaction(s) require manual inspection", len(result.Active))
	}
	sub.Infof("recovery complete: %d rolled back, %d active", len(result.RolledBack), len(result.Active))
	return result, nil
}
