package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrganizePreviewExecuteRollback(t *testing.T) {
	provider, out := newTestProvider(t)
	app, err := provider.Get()
	if err != nil {
		t.Fatal(err)
	}

	// Moves are confined to the App's single transactional root, so both
	// src and dest must live beneath it.
	srcDir := filepath.Join(app.LibraryRoot, "src")
	destRoot := filepath.Join(app.LibraryRoot, "dest")
	if err := os.MkdirAll(filepath.Join(srcDir, "game.rpy"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := runCmd(t, provider, "organize", "preview", srcDir, destRoot); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "move(s)") {
		t.Fatalf("unexpected preview output: %s", out.String())
	}

	out.Reset()
	if err := runCmd(t, provider, "organize", "execute", srcDir, destRoot); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Executed plan") {
		t.Fatalf("unexpected execute output: %s", out.String())
	}

	planID := strings.TrimSuffix(strings.Fields(strings.TrimPrefix(out.String(), "Executed plan "))[0], ":")

	out.Reset()
	if err := runCmd(t, provider, "organize", "rollback", planID); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Rolled back plan "+planID) {
		t.Fatalf("unexpected rollback output: %s", out.String())
	}
}
