// Package candidate implements the detector: given a directory, it
// decides whether the directory looks like a game installation and, if
// so, produces a ScanCandidate describing it.
package candidate

import (
	"time"

	"github.com/google/uuid"

	"github.com/galcurator/galcurator/pkg/kinds"
)

// ScanCandidate is a directory the detector believes may contain a game.
type ScanCandidate struct {
	ID               string
	Path             string
	DetectedTitle    string
	DetectedEngine   string
	Confidence       float64
	Indicators       []string
	Status           kinds.CandidateStatus
	DetectedAt       time.Time
	ConfirmedAt      *time.Time
	ManualCorrection *string
}

// newID generates a candidate identifier the same way pkg/journal
// generates transaction identifiers.
func newID() string {
	return uuid.NewString()
}
