package sentinel

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/galcurator/galcurator/pkg/kinds"
)

func TestTriggerScanInvokesCallbackWithFullScanResult(t *testing.T) {
	root := t.TempDir()
	game := filepath.Join(root, "game1")
	os.MkdirAll(game, 0o755)
	os.WriteFile(filepath.Join(game, "start.exe"), []byte("x"), 0o644)

	var mu sync.Mutex
	var got []string
	s := New(Config{
		Roots: []string{root},
		Mode:  kinds.WatchModeManual,
		Callback: func(dirs []string) {
			mu.Lock()
			defer mu.Unlock()
			got = dirs
		},
	})

	if err := s.TriggerScan(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != game {
		t.Fatalf("expected callback with [%s], got %+v", game, got)
	}
}

func TestManualModeStartDoesNoBackgroundWork(t *testing.T) {
	root := t.TempDir()
	called := false
	s := New(Config{
		Roots:    []string{root},
		Mode:     kinds.WatchModeManual,
		Callback: func([]string) { called = true },
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if called {
		t.Fatal("expected manual mode to perform no background scanning")
	}
}

func TestConfigureSwitchesMode(t *testing.T) {
	s := New(Config{Mode: kinds.WatchModeManual})
	if s.Mode() != kinds.WatchModeManual {
		t.Fatalf("expected initial mode manual, got %s", s.Mode())
	}
	if err := s.Configure(kinds.WatchModeScheduled); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != kinds.WatchModeScheduled {
		t.Fatalf("expected mode scheduled after Configure, got %s", s.Mode())
	}
}
