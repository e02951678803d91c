package sentinel

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestPollDetectsCreatedModifiedAndDeletedFiles(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "save.dat")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var kinds []eventKind
	record := func(path string, kind eventKind) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, kind)
	}

	p := newPoller([]string{root}, time.Hour, record)
	if err := p.poll(root); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	if len(kinds) != 1 || kinds[0] != eventCreated {
		t.Fatalf("expected one created event on first poll, got %+v", kinds)
	}
	kinds = nil
	mu.Unlock()

	future := time.Now().Add(time.Second)
	os.WriteFile(target, []byte("v2-longer"), 0o644)
	os.Chtimes(target, future, future)
	if err := p.poll(root); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	if len(kinds) != 1 || kinds[0] != eventModified {
		t.Fatalf("expected one modified event on second poll, got %+v", kinds)
	}
	kinds = nil
	mu.Unlock()

	os.Remove(target)
	if err := p.poll(root); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(kinds) != 1 || kinds[0] != eventDeleted {
		t.Fatalf("expected one deleted event on third poll, got %+v", kinds)
	}
}

func TestPollPersistsSnapshotForInstantBoot(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644)

	noop := func(string, eventKind) {}
	p1 := newPoller([]string{root}, time.Hour, noop)
	if err := p1.poll(root); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(snapshotPath(root)); err != nil {
		t.Fatalf("expected snapshot file to be written: %v", err)
	}

	var seen []eventKind
	p2 := newPoller([]string{root}, time.Hour, func(_ string, k eventKind) {
		seen = append(seen, k)
	})
	if err := p2.poll(root); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Fatalf("expected no events on instant-boot poll with unchanged contents, got %+v", seen)
	}
}

func TestPollerRunStopsOnContextCancel(t *testing.T) {
	root := t.TempDir()
	p := newPoller([]string{root}, 10*time.Millisecond, func(string, eventKind) {})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected poller to stop after context cancellation")
	}
}
