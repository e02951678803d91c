// Package organizer proposes reorganization plans by classifying a
// source tree against a pluggable naming policy, then executes each move
// as a prepared-then-committed transaction on top of pkg/transaction,
// recording an undo log so the whole plan can be rolled back.
package organizer

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/kinds"
)

// MoveStatus tracks one move's progress through a plan's lifecycle.
type MoveStatus string

const (
	MoveStatusPending    MoveStatus = "pending"
	MoveStatusCommitted  MoveStatus = "committed"
	MoveStatusFailed     MoveStatus = "failed"
	MoveStatusRolledBack MoveStatus = "rolled_back"
)

// Move is one proposed relocation within a Plan.
type Move struct {
	Src      string
	Dest     string
	Category string
	Status   MoveStatus
}

// Plan is the proposal produced by Preview and consumed by Execute.
type Plan struct {
	ID        string
	SrcRoot   string
	DestRoot  string
	Moves     []Move
	CreatedAt time.Time
}

// Proposer classifies the immediate children of a source tree against a
// NamingPolicy to build a Plan.
type Proposer struct {
	policy NamingPolicy
	clock  func() time.Time
}

// NewProposer builds a Proposer against policy.
func NewProposer(policy NamingPolicy) *Proposer {
	return &Proposer{policy: policy, clock: time.Now}
}

// Preview classifies every immediate child of src and proposes moving it
// under destRoot according to the naming policy, without touching the
// filesystem.
func (p *Proposer) Preview(src, destRoot string) (*Plan, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list source tree %q", src)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	moves := make([]Move, 0, len(names))
	for _, name := range names {
		category := p.policy.Classify(name)
		dest := p.policy.DestPath(destRoot, category, name)
		moves = append(moves, Move{
			Src:      filepath.Join(src, name),
			Dest:     dest,
			Category: category,
			Status:   MoveStatusPending,
		})
	}

	return &Plan{
		ID:        uuid.NewString(),
		SrcRoot:   src,
		DestRoot:  destRoot,
		Moves:     moves,
		CreatedAt: p.clock(),
	}, nil
}

// preflight refuses to execute a plan with any missing src, any colliding
// dest, or insufficient disk-free: the whole plan aborts before any move
// executes.
func preflight(plan *Plan, minFreeBytes int64) error {
	seen := make(map[string]bool, len(plan.Moves))
	for _, m := range plan.Moves {
		if _, err := os.Lstat(m.Src); err != nil {
			return kinds.Newf(kinds.ErrorKindPreconditionViolated, "organizer source %q is missing", m.Src).WithPath(m.Src)
		}
		if _, err := os.Lstat(m.Dest); err == nil {
			return kinds.Newf(kinds.ErrorKindPreconditionViolated, "organizer destination %q already exists", m.Dest).WithPath(m.Dest)
		}
		if seen[m.Dest] {
			return kinds.Newf(kinds.ErrorKindPreconditionViolated, "organizer plan has two moves targeting %q", m.Dest).WithPath(m.Dest)
		}
		seen[m.Dest] = true
	}

	if minFreeBytes <= 0 {
		return nil
	}
	// statfs against DestRoot; a missing DestRoot is only created by
	// Execute after preflight passes, so fall back to its parent.
	checkPath := plan.DestRoot
	if _, err := os.Lstat(checkPath); err != nil {
		checkPath = filepath.Dir(checkPath)
	}
	free, err := freeDiskSpaceFunc(checkPath)
	if err == nil && free < minFreeBytes {
		return kinds.Newf(kinds.ErrorKindPreconditionViolated, "insufficient disk space at %q: %d bytes free, %d required", checkPath, free, minFreeBytes)
	}
	return nil
}
