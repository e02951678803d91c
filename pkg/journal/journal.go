// Package journal implements the append-only, atomic-durable operation log:
// one JSON object per line, flushed and fsync'd on every append, with
// malformed lines skipped (and logged) on read rather than aborting the
// whole journal.
package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/logging"
)

// Journal owns the journal file exclusively; no other component may open
// it for writing.
type Journal struct {
	path string
	mu   sync.Mutex
	log  *logging.Logger
}

// Open opens (creating if necessary) the journal file at path. It does not
// read the file; callers needing existing entries should call ReadAll.
func Open(path string, log *logging.Logger) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create journal file")
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close journal file after creation")
	}
	return &Journal{path: path, log: log.Sublogger("journal")}, nil
}

// NewTxID generates a fresh transaction identifier.
func NewTxID() string {
	return uuid.NewString()
}

// Append writes entry as a new line, flushing and forcing an fsync before
// returning. If the sync fails the error is propagated unswallowed: the
// caller must treat the append as failed even though bytes may already
// reside in the OS page cache.
func (j *Journal) Append(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "unable to marshal journal entry")
	}
	data = append(data, '\n')

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "unable to open journal file for append")
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "unable to write journal entry")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "unable to sync journal file")
	}
	return nil
}

// ReadAll returns every well-formed entry in append order. Malformed lines
// are skipped with a logged warning; reading continues.
func (j *Journal) ReadAll() ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unable to open journal file for read")
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			j.log.Warn(errors.Wrap(err, "skipping malformed journal line"))
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, errors.Wrap(err, "error scanning journal file")
	}
	return entries, nil
}

// latestByTxID reduces a list of entries to the last entry seen for each
// TxID, preserving the append order of first occurrence.
func latestByTxID(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	var order []string
	for _, e := range entries {
		if !seen[e.TxID] {
			seen[e.TxID] = true
			order = append(order, e.TxID)
		}
	}
	latest := make(map[string]Entry, len(order))
	for _, e := range entries {
		latest[e.TxID] = e
	}
	result := make([]Entry, 0, len(order))
	for _, id := range order {
		result = append(result, latest[id])
	}
	return result
}

// Prepared returns the latest entry for every transaction whose current
// state is TxStatePrepared.
func (j *Journal) Prepared() ([]Entry, error) {
	entries, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	var prepared []Entry
	for _, e := range latestByTxID(entries) {
		if e.State == kinds.TxStatePrepared {
			prepared = append(prepared, e)
		}
	}
	return prepared, nil
}

// Stale returns the latest entry for every transaction that is prepared
// and whose timeout has elapsed as of now.
func (j *Journal) Stale(now time.Time) ([]Entry, error) {
	prepared, err := j.Prepared()
	if err != nil {
		return nil, err
	}
	var stale []Entry
	for _, e := range prepared {
		if e.Stale(now) {
			stale = append(stale, e)
		}
	}
	return stale, nil
}

// RecoverResult summarizes a Recover pass.
type RecoverResult struct {
	Stale  []Entry
	Active []Entry
}

// Recover classifies every currently-prepared transaction as stale or
// active as of now, invoking rollbackFn exactly once for each stale entry.
// Active (non-stale prepared) entries are left untouched for manual
// inspection.
func (j *Journal) Recover(now time.Time, rollbackFn func(Entry) error) (RecoverResult, error) {
	prepared, err := j.Prepared()
	if err != nil {
		return RecoverResult{}, err
	}

	var result RecoverResult
	for _, e := range prepared {
		if e.Stale(now) {
			result.Stale = append(result.Stale, e)
			if err := rollbackFn(e); err != nil {
				return result, errors.Wrapf(err, "rollback failed for stale transaction %s", e.TxID)
			}
		} else {
			result.Active = append(result.Active, e)
			j.log.Warnf("active prepared transaction %s requires manual inspection (timeout at %s)", e.TxID, e.TimeoutAt)
		}
	}
	return result, nil
}
