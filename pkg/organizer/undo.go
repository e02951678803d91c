package organizer

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// UndoEntry is one line of the undo log: the provenance of a single
// successful move, sufficient to reverse it.
type UndoEntry struct {
	PlanID       string    `json:"plan_id"`
	OriginalPath string    `json:"original_path"`
	MovedPath    string    `json:"moved_path"`
	Checksum     string    `json:"checksum"`
	Timestamp    time.Time `json:"timestamp"`
}

// UndoLog is an append-only JSON-lines file, one UndoEntry per line,
// guarded by the same append-mutex discipline as the journal so organizer
// moves never interleave badly with themselves under concurrent execution.
type UndoLog struct {
	path string
	mu   sync.Mutex
}

// OpenUndoLog opens (creating if necessary) the undo log at path.
func OpenUndoLog(path string) (*UndoLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open undo log %q", path)
	}
	f.Close()
	return &UndoLog{path: path}, nil
}

// Append writes one entry, syncing before returning so a committed move
// is never recorded with less durability than the move itself.
func (u *UndoLog) Append(entry UndoEntry) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	f, err := os.OpenFile(u.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "unable to open undo log for append")
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "unable to marshal undo entry")
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "unable to append undo entry")
	}
	return f.Sync()
}

// EntriesForPlan returns every entry recorded under planID, in the order
// they were appended. Corrupt lines are skipped, matching the journal's
// own forward-compatibility policy.
func (u *UndoLog) EntriesForPlan(planID string) ([]UndoEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	f, err := os.Open(u.path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open undo log")
	}
	defer f.Close()

	var entries []UndoEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry UndoEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.PlanID == planID {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read undo log")
	}
	return entries, nil
}
