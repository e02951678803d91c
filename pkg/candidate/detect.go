package candidate

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/kinds"
)

// Clock is overridable for deterministic tests.
var Clock = time.Now

// Detect examines a directory's immediate contents and returns a
// ScanCandidate if it looks like a game installation, or ok=false if it
// doesn't. It never writes anything and never recurses.
func Detect(dir string) (ScanCandidate, bool, error) {
	base := filepath.Base(dir)
	if isIgnoredDirName(base) {
		return ScanCandidate{}, false, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ScanCandidate{}, false, errors.Wrapf(err, "unable to read directory %q", dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	var engine string
	var confidence float64
	for _, sig := range engineSignatures {
		if sig.matches(names) {
			engine = sig.name
			confidence = sig.confidence
			break
		}
	}

	indicators := genericIndicators(names)
	if engine == "" && len(indicators) == 0 {
		return ScanCandidate{}, false, nil
	}
	if len(indicators) > 0 {
		confidence = math.Min(confidence+genericIndicatorBump, maxConfidence)
	}

	candidate := ScanCandidate{
		ID:             newID(),
		Path:           dir,
		DetectedTitle:  cleanTitle(base),
		DetectedEngine: engine,
		Confidence:     confidence,
		Indicators:     indicators,
		Status:         kinds.CandidateStatusPending,
		DetectedAt:     Clock(),
	}
	return candidate, true, nil
}
