package cli

import (
	"strings"
	"testing"
)

func TestTrashStatusAndEmpty(t *testing.T) {
	provider, out := newTestProvider(t)

	if err := runCmd(t, provider, "trash", "status"); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Fatal("expected trash status output")
	}

	out.Reset()
	if err := runCmd(t, provider, "trash", "empty"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Trash emptied") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}
