// Package pipeline wires together the candidate detector (pkg/candidate)
// and the cluster engine (pkg/cluster) behind the directory list a
// Sentinel scan callback produces, persisting results through pkg/store.
// Sentinel itself performs no database writes; this is the glue between
// detection, clustering, and the storage schema.
package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/candidate"
	"github.com/galcurator/galcurator/pkg/cluster"
	"github.com/galcurator/galcurator/pkg/logging"
	"github.com/galcurator/galcurator/pkg/store"
)

// ClusterThreshold is the minimum title-similarity score that links two
// candidates into the same suggested cluster.
const ClusterThreshold = 0.6

// Pipeline detects, clusters, and persists candidates discovered by a
// Sentinel scan.
type Pipeline struct {
	db     *store.Store
	engine *cluster.Engine
	log    *logging.Logger
	clock  func() time.Time
}

// New creates a Pipeline backed by db, clustering with tokenTitleSimilarity.
func New(db *store.Store, log *logging.Logger) *Pipeline {
	return &Pipeline{
		db: db,
		engine: cluster.New(cluster.Config{
			Similarity: tokenTitleSimilarity,
			Threshold:  ClusterThreshold,
		}),
		log:   log,
		clock: time.Now,
	}
}

// HandleDirs is the Sentinel ScanCallback: it runs the detector against
// each directory, persists any resulting candidate, then re-clusters the
// full pending pool.
func (p *Pipeline) HandleDirs(dirs []string) {
	ctx := context.Background()
	for _, dir := range dirs {
		cand, ok, err := candidate.Detect(dir)
		if err != nil {
			p.log.Warnf("detect %s: %v", dir, err)
			continue
		}
		if !ok {
			continue
		}
		indicators, _ := json.Marshal(cand.Indicators)
		if err := store.InsertScanCandidate(ctx, p.db.DB(), cand.ID, cand.Path, cand.DetectedTitle, cand.DetectedEngine, cand.Confidence, string(indicators), p.clock()); err != nil {
			p.log.Warnf("persist candidate %s: %v", dir, err)
		}
	}

	if err := p.Recluster(ctx); err != nil {
		p.log.Warnf("recluster: %v", err)
	}
}

// Recluster loads every pending candidate, runs the cluster engine over
// them, and persists each resulting suggested cluster. Candidates folded
// into a cluster move out of pending so they aren't reconsidered on the
// next pass; pkg/decision's RejectCluster is what returns them.
func (p *Pipeline) Recluster(ctx context.Context) error {
	rows, err := store.ListPendingScanCandidates(ctx, p.db.DB())
	if err != nil {
		return errors.Wrap(err, "unable to list pending candidates")
	}
	if len(rows) == 0 {
		return nil
	}

	byPath := make(map[string]store.ScanCandidateRow, len(rows))
	candidates := make([]cluster.Candidate, 0, len(rows))
	for _, r := range rows {
		byPath[r.Path] = r
		candidates = append(candidates, cluster.Candidate{
			InstancePath:    r.Path,
			NormalizedTitle: normalizeTitle(r.Title),
			Confidence:      r.Confidence,
		})
	}

	clusters, err := p.engine.Cluster(candidates)
	if err != nil {
		return errors.Wrap(err, "unable to cluster candidates")
	}

	now := p.clock()
	return p.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, c := range clusters {
			members := make([]store.ClusterMemberRow, 0, len(c.Members))
			for _, m := range c.Members {
				members = append(members, store.ClusterMemberRow{
					InstancePath: m.InstancePath,
					MatchScore:   m.Confidence,
					IsPrimary:    m.IsPrimary,
				})
			}
			if err := store.InsertMatchCluster(ctx, tx, c.ID, c.Status.String(), c.SuggestedTitle, "{}", c.Confidence, members, now); err != nil {
				return errors.Wrapf(err, "unable to persist cluster %q", c.ID)
			}
			for _, m := range c.Members {
				if err := store.SetScanCandidateStatusByPath(ctx, tx, m.InstancePath, "confirmed", now); err != nil {
					return errors.Wrapf(err, "unable to mark %q confirmed", m.InstancePath)
				}
			}
		}
		return nil
	})
}

// normalizeTitle lowercases and collapses whitespace so near-duplicate
// titles ("Half-Life  2", "half-life 2") score as identical tokens.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// tokenTitleSimilarity scores two candidates by Jaccard overlap of their
// normalized titles' whitespace-separated tokens.
func tokenTitleSimilarity(a, b cluster.Candidate) float64 {
	ta := strings.Fields(a.NormalizedTitle)
	tb := strings.Fields(b.NormalizedTitle)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
