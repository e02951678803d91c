// Package canonicalize implements the promotion service: it takes a
// suggested MatchCluster (or a directly accepted IdentityMatchCandidate)
// and mints or reuses a CanonicalGame, linking every member instance to
// it inside a single transaction. Promotion is strict, idempotent, fully
// journaled in the provenance table, and irreversible.
package canonicalize

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/store"
)

// ExternalHypothesis is an external-catalog identity to attach to the
// promoted canonical game.
type ExternalHypothesis struct {
	SourceType string
	SourceID   string
	SourceHash string
}

// Overrides lets the caller steer a promotion, e.g. pre-selecting a
// specific canonical id instead of minting a new one.
type Overrides struct {
	CanonicalID string
}

// Service promotes clusters into canonical truth.
type Service struct {
	db    *store.Store
	clock func() time.Time
}

// New creates a Service backed by db.
func New(db *store.Store) *Service {
	return &Service{db: db, clock: time.Now}
}

// AcceptCluster promotes clusterID's members into canonical truth.
// Every external hypothesis already recorded against the cluster's
// members must be supplied by the caller since the cluster engine
// itself doesn't own that bookkeeping. Re-running accept on a cluster
// already in accepted status is a no-op: it resolves and returns the
// canonical id the first run produced, re-attaching any hypotheses
// (itself idempotent) rather than minting a second canonical game or
// rejecting the call outright.
func (s *Service) AcceptCluster(ctx context.Context, clusterID string, hypotheses []ExternalHypothesis, overrides Overrides) (canonicalID string, err error) {
	now := s.clock()

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		cluster, getErr := store.GetMatchCluster(ctx, tx, clusterID)
		if getErr == sql.ErrNoRows {
			return kinds.Newf(kinds.ErrorKindOperationFailed, "cluster %q not found", clusterID)
		}
		if getErr != nil {
			return getErr
		}

		var id string
		switch cluster.Status {
		case "accepted":
			resolved, resolveErr := s.resolveAcceptedCanonicalID(ctx, tx, cluster)
			if resolveErr != nil {
				return resolveErr
			}
			id = resolved
		case "suggested":
			suggested := ""
			if cluster.SuggestedCanonicalID.Valid {
				suggested = cluster.SuggestedCanonicalID.String
			}
			minted, mintErr := s.mintOrReuseCanonical(ctx, tx, suggested, overrides.CanonicalID, cluster.SuggestedTitle, now)
			if mintErr != nil {
				return mintErr
			}
			id = minted
		default:
			return kinds.Newf(kinds.ErrorKindConflict, "cluster %q is not in suggested status", clusterID)
		}
		canonicalID = id

		for _, h := range hypotheses {
			if linkErr := s.attachIdentityLink(ctx, tx, canonicalID, h); linkErr != nil {
				return linkErr
			}
			if err := store.InsertCanonicalSourceLink(ctx, tx, "canonical_game", canonicalID, h.SourceType, h.SourceID, h.SourceHash, now); err != nil {
				return errors.Wrap(err, "unable to write provenance link")
			}
		}

		for _, m := range cluster.Members {
			if err := store.SetLocalInstanceGameID(ctx, tx, m.InstancePath, canonicalID); err != nil {
				return errors.Wrapf(err, "unable to link instance %q", m.InstancePath)
			}
		}

		if cluster.Status != "accepted" {
			if err := store.SetClusterStatus(ctx, tx, clusterID, "accepted", now); err != nil {
				return errors.Wrap(err, "unable to mark cluster accepted")
			}
		}

		return nil
	})

	return canonicalID, err
}

// resolveAcceptedCanonicalID finds the canonical id a previously-accepted
// cluster was promoted into, preferring the cluster's own suggested id
// and falling back to whichever member instance is already linked.
func (s *Service) resolveAcceptedCanonicalID(ctx context.Context, tx *sql.Tx, cluster store.MatchCluster) (string, error) {
	if cluster.SuggestedCanonicalID.Valid {
		return cluster.SuggestedCanonicalID.String, nil
	}
	for _, m := range cluster.Members {
		gameID, linked, err := store.GetLocalInstanceGameID(ctx, tx, m.InstancePath)
		if err != nil {
			return "", err
		}
		if linked {
			return gameID, nil
		}
	}
	return "", kinds.Newf(kinds.ErrorKindOperationFailed, "cluster %q is accepted but no member is linked to a canonical game", cluster.ID)
}

// mintOrReuseCanonical reuses suggestedID or overrideID when present and
// existing, otherwise mints a fresh CanonicalGame with the given title.
func (s *Service) mintOrReuseCanonical(ctx context.Context, tx *sql.Tx, suggestedID, overrideID, title string, now time.Time) (string, error) {
	candidateID := overrideID
	if candidateID == "" {
		candidateID = suggestedID
	}

	if candidateID != "" {
		if _, err := store.GetCanonicalGame(ctx, tx, candidateID); err == nil {
			return candidateID, nil
		} else if err != sql.ErrNoRows {
			return "", err
		}
	}

	id := uuid.NewString()
	metadata, _ := json.Marshal(map[string]any{})
	if err := store.InsertCanonicalGame(ctx, tx, store.CanonicalGame{
		ID:               id,
		DisplayTitle:     title,
		MetadataSnapshot: string(metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		return "", errors.Wrap(err, "unable to mint canonical game")
	}
	return id, nil
}

// attachIdentityLink enforces the (source_type, external_id) uniqueness
// invariant: a conflicting link to a different canonical game aborts the
// whole promotion rather than silently merging or duplicating.
func (s *Service) attachIdentityLink(ctx context.Context, tx *sql.Tx, canonicalID string, h ExternalHypothesis) error {
	owner, exists, err := store.IdentityLinkOwner(ctx, tx, h.SourceType, h.SourceID)
	if err != nil {
		return err
	}
	if exists {
		if owner != canonicalID {
			return kinds.Newf(kinds.ErrorKindConflict,
				"external id %s:%s is already linked to a different canonical game", h.SourceType, h.SourceID)
		}
		return nil
	}
	return store.InsertIdentityLink(ctx, tx, canonicalID, h.SourceType, h.SourceID, s.clock())
}
