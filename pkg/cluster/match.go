package cluster

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/kinds"
)

// unionFind is a minimal disjoint-set structure used to compute the
// transitive closure of pairwise links.
type unionFind struct {
	parent map[string]string
}

func newUnionFind(keys []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(keys))}
	for _, k := range keys {
		uf.parent[k] = k
	}
	return uf
}

func (uf *unionFind) find(x string) string {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// Engine runs the clustering policy over a pool of candidates. It keeps no
// record of which instance paths already belong to a suggested cluster;
// exclusivity across clusters is left to callers.
type Engine struct {
	config Config
}

// New creates an Engine. Similarity and Threshold must be supplied by the
// caller; Clock defaults to time.Now.
func New(config Config) *Engine {
	return &Engine{config: config}
}

// linkScore returns the score two candidates are linked at, or -1 if
// they are not linked. An external-id match always links regardless of
// title similarity.
func (e *Engine) linkScore(a, b Candidate) float64 {
	if a.ExternalSourceType != "" && a.ExternalSourceType == b.ExternalSourceType &&
		a.ExternalSourceID != "" && a.ExternalSourceID == b.ExternalSourceID {
		return 1.0
	}
	score := e.config.Similarity(a, b)
	if score >= e.config.Threshold {
		return score
	}
	return -1
}

// Cluster computes the transitive closure of candidates linked either by
// title similarity or shared external-id hypothesis, and returns the
// resulting suggested MatchClusters. Candidates with no links to anyone
// else are omitted unless SingleCandidateConfirmation is set.
func (e *Engine) Cluster(candidates []Candidate) ([]MatchCluster, error) {
	if e.config.Similarity == nil {
		return nil, errors.New("cluster: no similarity function configured")
	}
	clock := e.config.Clock
	if clock == nil {
		clock = time.Now
	}

	paths := make([]string, len(candidates))
	byPath := make(map[string]Candidate, len(candidates))
	for i, c := range candidates {
		paths[i] = c.InstancePath
		byPath[c.InstancePath] = c
	}

	uf := newUnionFind(paths)
	linkScores := make(map[[2]string]float64)
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if score := e.linkScore(a, b); score >= 0 {
				uf.union(a.InstancePath, b.InstancePath)
				linkScores[[2]string{a.InstancePath, b.InstancePath}] = score
			}
		}
	}

	groups := make(map[string][]string)
	for _, p := range paths {
		root := uf.find(p)
		groups[root] = append(groups[root], p)
	}

	var clusters []MatchCluster
	for _, members := range groups {
		if len(members) < 2 && !e.config.SingleCandidateConfirmation {
			continue
		}

		minScore := 1.0
		hasLink := false
		for pair, score := range linkScores {
			if uf.find(pair[0]) != uf.find(members[0]) {
				continue
			}
			hasLink = true
			if score < minScore {
				minScore = score
			}
		}
		if !hasLink {
			if !e.config.SingleCandidateConfirmation {
				continue
			}
			minScore = byPath[members[0]].Confidence
		}

		highestConfidence := members[0]
		for _, m := range members {
			if byPath[m].Confidence > byPath[highestConfidence].Confidence {
				highestConfidence = m
			}
		}

		clusterMembers := make([]Member, 0, len(members))
		for _, m := range members {
			clusterMembers = append(clusterMembers, Member{
				InstancePath: m,
				Confidence:   byPath[m].Confidence,
				IsPrimary:    m == highestConfidence,
			})
		}

		clusters = append(clusters, MatchCluster{
			ID:             uuid.NewString(),
			Status:         kinds.ClusterStatusSuggested,
			Confidence:     minScore,
			SuggestedTitle: byPath[highestConfidence].NormalizedTitle,
			Members:        clusterMembers,
			CreatedAt:      clock(),
		})
	}

	return clusters, nil
}
