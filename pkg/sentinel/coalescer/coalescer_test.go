package coalescer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDrainCollapsesManyEventsIntoOneParentSet(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string

	c := New(func(parents []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, parents)
	})
	c.Window = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	parent := filepath.Join("root", "game1")
	for i := 0; i < 50; i++ {
		c.Add(filepath.Join(parent, "file"+string(rune('a'+i%26))))
	}

	time.Sleep(100 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one callback invocation, got %d: %+v", len(calls), calls)
	}
	if len(calls[0]) != 1 || calls[0][0] != parent {
		t.Fatalf("expected single parent %q, got %+v", parent, calls[0])
	}
}

func TestDrainSkipsEmptyWindows(t *testing.T) {
	var calls int
	var mu sync.Mutex
	c := New(func(parents []string) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	c.Window = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	time.Sleep(60 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected no callback invocations for empty coalescer, got %d", calls)
	}
}
