package stability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTrackIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := New()
	e1, ok := tr.Track(path, KindCreated)
	if !ok {
		t.Fatal("expected track to succeed")
	}
	e2, ok := tr.Track(path, KindModified)
	if !ok {
		t.Fatal("expected second track to succeed")
	}
	if e1.FirstSeen != e2.FirstSeen {
		t.Fatal("expected idempotent track to return the original event")
	}
	if tr.Len() != 1 {
		t.Fatalf("expected exactly one tracked path, got %d", tr.Len())
	}
}

func TestTrackRefusesDeletedKind(t *testing.T) {
	tr := New()
	if _, ok := tr.Track("/nonexistent", KindDeleted); ok {
		t.Fatal("expected deleted kind to be refused")
	}
}

func TestCheckStabilityReportsAfterThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := New()
	tr.Threshold = time.Second
	start := time.Now()
	tr.now = func() time.Time { return start }
	if _, ok := tr.Track(path, KindCreated); !ok {
		t.Fatal("expected track to succeed")
	}

	if stable := tr.CheckStability(start.Add(500 * time.Millisecond)); len(stable) != 0 {
		t.Fatal("expected no stability before threshold elapses")
	}

	stable := tr.CheckStability(start.Add(2 * time.Second))
	if len(stable) != 1 || stable[0].Path != path {
		t.Fatalf("expected exactly one stable event, got %+v", stable)
	}
	if tr.Len() != 0 {
		t.Fatal("expected path removed from tracking after reporting stable")
	}
}

func TestCheckStabilityNeverReportsWhileChanging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := New()
	tr.Threshold = time.Second
	start := time.Now()
	tr.now = func() time.Time { return start }
	tr.Track(path, KindCreated)

	// Mutate the file mid-window.
	future := start.Add(2 * time.Second)
	if err := os.WriteFile(path, []byte("a much longer payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Chtimes(path, future, future)

	stable := tr.CheckStability(future)
	if len(stable) != 0 {
		t.Fatal("expected changed file to never appear as stable in the same pass it changed")
	}
	if tr.Len() != 1 {
		t.Fatal("expected file to remain tracked with a refreshed baseline")
	}
}
