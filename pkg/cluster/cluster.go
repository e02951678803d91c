// Package cluster implements the grouping engine: it consumes candidates,
// links them pairwise via a pluggable similarity function, takes the
// transitive closure, and emits suggested MatchClusters. It never
// promotes a cluster to canonical truth; that is the exclusive privilege
// of the canonicalization service.
package cluster

import (
	"time"

	"github.com/google/uuid"

	"github.com/galcurator/galcurator/pkg/kinds"
)

// Member is a single candidate folded into a cluster, identified by its
// instance path.
type Member struct {
	InstancePath string
	Confidence   float64
	IsPrimary    bool
}

// MatchCluster is a proposed grouping of instances awaiting a human
// decision.
type MatchCluster struct {
	ID                   string
	Status               kinds.ClusterStatus
	Confidence           float64
	SuggestedTitle       string
	SuggestedCanonicalID string
	Members              []Member
	CreatedAt            time.Time
}

// Candidate is the minimal view of a ScanCandidate (or
// IdentityMatchCandidate) the cluster engine needs: an instance path, a
// normalized title to compare, an individual confidence score, and an
// optional external-id hypothesis.
type Candidate struct {
	InstancePath       string
	NormalizedTitle    string
	Confidence         float64
	ExternalSourceType string
	ExternalSourceID   string
}

// SimilarityFunc scores how alike two candidates are. Implementations
// must be symmetric and reflexive and return a value in [0,1].
type SimilarityFunc func(a, b Candidate) float64

// Config controls clustering policy.
type Config struct {
	Similarity SimilarityFunc
	// Threshold is the minimum similarity score that links two
	// candidates by title.
	Threshold float64
	// SingleCandidateConfirmation, when true, emits a suggested cluster
	// even for a lone high-value candidate instead of requiring at least
	// two members.
	SingleCandidateConfirmation bool
	// Clock is overridable for deterministic tests.
	Clock func() time.Time
}
