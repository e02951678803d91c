package sentinel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFullScanReturnsRootWhenOnlyRootHasContent(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "start.exe"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := FullScan([]string{root})
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || dirs[0] != root {
		t.Fatalf("expected exactly [%s], got %+v", root, dirs)
	}
}

func TestFullScanReturnsEachDirectoryWithDirectContent(t *testing.T) {
	root := t.TempDir()
	game1 := filepath.Join(root, "game1")
	game2 := filepath.Join(root, "game2")
	if err := os.MkdirAll(game1, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(game2, 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(game1, "start.exe"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(game2, "data.xp3"), []byte("x"), 0o644)

	dirs, err := FullScan([]string{root})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{game1: true, game2: true}
	if len(dirs) != len(want) {
		t.Fatalf("expected %d dirs, got %+v", len(want), dirs)
	}
	for _, d := range dirs {
		if !want[d] {
			t.Fatalf("unexpected directory in result: %s", d)
		}
	}
}

func TestFullScanSkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	os.MkdirAll(gitDir, 0o755)
	os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("x"), 0o644)

	dirs, err := FullScan([]string{root})
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 0 {
		t.Fatalf("expected no content outside ignored directory, got %+v", dirs)
	}
}
