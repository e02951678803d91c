package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/logging"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	dir := t.TempDir()
	j, err := Open(filepath.Join(dir, "journal.log"), logging.RootLogger)
	if err != nil {
		t.Fatal(err)
	}
	return j
}

func TestAppendAndReadAll(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now()
	e := Entry{
		TxID: NewTxID(), Op: kinds.OperationRename, Src: "/a", Dest: "/b",
		State: kinds.TxStatePrepared, Timestamp: now, TimeoutAt: now.Add(time.Minute),
	}
	if err := j.Append(e); err != nil {
		t.Fatal(err)
	}
	entries, err := j.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].TxID != e.TxID {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")
	j, err := Open(path, logging.RootLogger)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	good := Entry{TxID: "t1", Op: kinds.OperationMkdir, Src: "/a", State: kinds.TxStatePrepared, Timestamp: now, TimeoutAt: now.Add(time.Minute)}
	if err := j.Append(good); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not valid json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	entries, err := j.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected malformed line to be skipped, got %d entries", len(entries))
	}
}

func TestLatestByTxIDReducesToLastState(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now()
	txID := NewTxID()
	prepared := Entry{TxID: txID, Op: kinds.OperationDelete, Src: "/a", State: kinds.TxStatePrepared, Timestamp: now, TimeoutAt: now.Add(time.Minute)}
	committed := prepared
	committed.State = kinds.TxStateCommitted
	committed.Dest = "/trash/t/a"

	if err := j.Append(prepared); err != nil {
		t.Fatal(err)
	}
	if err := j.Append(committed); err != nil {
		t.Fatal(err)
	}

	pending, err := j.Prepared()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no prepared entries after commit, got %+v", pending)
	}
}

func TestStaleOnlyIncludesExpiredPrepared(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now()

	expired := Entry{TxID: NewTxID(), Op: kinds.OperationRename, Src: "/a", Dest: "/b", State: kinds.TxStatePrepared, Timestamp: now.Add(-time.Hour), TimeoutAt: now.Add(-time.Minute)}
	active := Entry{TxID: NewTxID(), Op: kinds.OperationRename, Src: "/c", Dest: "/d", State: kinds.TxStatePrepared, Timestamp: now, TimeoutAt: now.Add(time.Hour)}

	if err := j.Append(expired); err != nil {
		t.Fatal(err)
	}
	if err := j.Append(active); err != nil {
		t.Fatal(err)
	}

	stale, err := j.Stale(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0].TxID != expired.TxID {
		t.Fatalf("unexpected stale set: %+v", stale)
	}
}

func TestRecoverInvokesRollbackOnlyForStale(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now()

	expired := Entry{TxID: NewTxID(), Op: kinds.OperationRename, Src: "/a", Dest: "/b", State: kinds.TxStatePrepared, Timestamp: now.Add(-time.Hour), TimeoutAt: now.Add(-time.Minute)}
	active := Entry{TxID: NewTxID(), Op: kinds.OperationRename, Src: "/c", Dest: "/d", State: kinds.TxStatePrepared, Timestamp: now, TimeoutAt: now.Add(time.Hour)}

	if err := j.Append(expired); err != nil {
		t.Fatal(err)
	}
	if err := j.Append(active); err != nil {
		t.Fatal(err)
	}

	var rolledBack []string
	result, err := j.Recover(now, func(e Entry) error {
		rolledBack = append(rolledBack, e.TxID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rolledBack) != 1 || rolledBack[0] != expired.TxID {
		t.Fatalf("expected rollback only for expired entry, got %+v", rolledBack)
	}
	if len(result.Active) != 1 || result.Active[0].TxID != active.TxID {
		t.Fatalf("expected active entry retained, got %+v", result.Active)
	}
}
