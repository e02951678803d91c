package cli

import (
	"strings"
	"testing"
)

func TestScanTrigger(t *testing.T) {
	provider, out := newTestProvider(t)
	if err := runCmd(t, provider, "scan", "trigger"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Scan triggered") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestScanSetModeRejectsUnsupportedValue(t *testing.T) {
	provider, _ := newTestProvider(t)
	if err := runCmd(t, provider, "scan", "set-mode", "bogus"); err == nil {
		t.Fatal("expected an error for an unsupported watch mode")
	}
}

func TestScanSetModeAcceptsSupportedValue(t *testing.T) {
	provider, out := newTestProvider(t)
	if err := runCmd(t, provider, "scan", "set-mode", "manual"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Watch mode set to manual") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}
