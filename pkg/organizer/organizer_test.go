package organizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/galcurator/galcurator/pkg/journal"
	"github.com/galcurator/galcurator/pkg/logging"
	"github.com/galcurator/galcurator/pkg/transaction"
	"github.com/galcurator/galcurator/pkg/trash"
)

func newTestEngine(t *testing.T, root string) *transaction.Engine {
	t.Helper()
	configDir := t.TempDir()

	j, err := journal.Open(filepath.Join(configDir, "journal.log"), logging.RootLogger)
	if err != nil {
		t.Fatal(err)
	}
	tr := trash.New(configDir, logging.RootLogger)
	if err := tr.SaveConfig(trash.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	return transaction.NewEngine(j, tr, root, logging.RootLogger)
}

// newTestTree builds a library root containing separate src and dest
// subtrees, since the transaction engine confines every move to a single
// root.
func newTestTree(t *testing.T) (root, srcRoot, destRoot string) {
	t.Helper()
	root = t.TempDir()
	srcRoot = filepath.Join(root, "src")
	destRoot = filepath.Join(root, "dest")
	if err := os.MkdirAll(srcRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	return root, srcRoot, destRoot
}

func testPolicy() NamingPolicy {
	return NamingPolicy{
		Rules: []Rule{
			{Pattern: "*.rpy", Category: "RenPy"},
			{Pattern: "*.xp3", Category: "Kirikiri"},
		},
		DefaultCategory: "Uncategorized",
		DestTemplate:    "{{.Category}}/{{.Name}}",
	}
}

func TestClassifyFirstMatchingRuleWins(t *testing.T) {
	p := testPolicy()
	if got := p.Classify("script.rpy"); got != "RenPy" {
		t.Fatalf("expected RenPy, got %s", got)
	}
	if got := p.Classify("random.txt"); got != "Uncategorized" {
		t.Fatalf("expected Uncategorized, got %s", got)
	}
}

func TestPreviewProposesOneMovePerChild(t *testing.T) {
	srcRoot := t.TempDir()
	destRoot := t.TempDir()
	if err := os.Mkdir(filepath.Join(srcRoot, "game.rpy"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcRoot, "game.xp3"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := NewProposer(testPolicy()).Preview(srcRoot, destRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Moves) != 2 {
		t.Fatalf("expected 2 moves, got %+v", plan.Moves)
	}
	byCategory := map[string]string{}
	for _, m := range plan.Moves {
		byCategory[m.Category] = m.Dest
	}
	if byCategory["RenPy"] != filepath.Join(destRoot, "RenPy", "game.rpy") {
		t.Fatalf("unexpected RenPy dest: %+v", byCategory)
	}
	if byCategory["Kirikiri"] != filepath.Join(destRoot, "Kirikiri", "game.xp3") {
		t.Fatalf("unexpected Kirikiri dest: %+v", byCategory)
	}
}

func TestExecuteMovesFilesAndRecordsUndoLog(t *testing.T) {
	root, srcRoot, destRoot := newTestTree(t)
	if err := os.WriteFile(filepath.Join(srcRoot, "game.xp3"), []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := NewProposer(testPolicy()).Preview(srcRoot, destRoot)
	if err != nil {
		t.Fatal(err)
	}

	undo, err := OpenUndoLog(filepath.Join(t.TempDir(), "undo.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	exec := NewExecutor(newTestEngine(t, root), undo, 0)
	if err := exec.Execute(plan); err != nil {
		t.Fatal(err)
	}

	wantPath := filepath.Join(destRoot, "Kirikiri", "game.xp3")
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("expected moved file at %q: %v", wantPath, err)
	}
	if plan.Moves[0].Status != MoveStatusCommitted {
		t.Fatalf("expected move committed, got %s", plan.Moves[0].Status)
	}

	entries, err := undo.EntriesForPlan(plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].MovedPath != wantPath {
		t.Fatalf("expected one undo entry for the move, got %+v", entries)
	}
}

func TestExecuteRefusesWhenDestinationCollides(t *testing.T) {
	root, srcRoot, destRoot := newTestTree(t)
	if err := os.WriteFile(filepath.Join(srcRoot, "game.xp3"), []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(destRoot, "Kirikiri"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destRoot, "Kirikiri", "game.xp3"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := NewProposer(testPolicy()).Preview(srcRoot, destRoot)
	if err != nil {
		t.Fatal(err)
	}

	undo, err := OpenUndoLog(filepath.Join(t.TempDir(), "undo.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	exec := NewExecutor(newTestEngine(t, root), undo, 0)
	if err := exec.Execute(plan); err == nil {
		t.Fatal("expected preflight collision error")
	}
}

func TestRollbackRestoresOriginalPathAfterExecute(t *testing.T) {
	root, srcRoot, destRoot := newTestTree(t)
	if err := os.WriteFile(filepath.Join(srcRoot, "game.xp3"), []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := NewProposer(testPolicy()).Preview(srcRoot, destRoot)
	if err != nil {
		t.Fatal(err)
	}

	undo, err := OpenUndoLog(filepath.Join(t.TempDir(), "undo.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	exec := NewExecutor(newTestEngine(t, root), undo, 0)
	if err := exec.Execute(plan); err != nil {
		t.Fatal(err)
	}

	if err := exec.Rollback(plan.ID); err != nil {
		t.Fatal(err)
	}

	original := filepath.Join(srcRoot, "game.xp3")
	got, err := os.ReadFile(original)
	if err != nil {
		t.Fatalf("expected file restored to %q: %v", original, err)
	}
	if string(got) != "payload" {
		t.Fatalf("expected original content preserved, got %q", got)
	}
}
