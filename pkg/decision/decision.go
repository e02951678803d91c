// Package decision implements the narrow mutation command surface,
// separate from the read-only library view: accept_cluster,
// reject_cluster, and detach_instance. Every command is gated by the
// recovery fuse so no mutation is accepted while the process believes
// its own state may be corrupt.
package decision

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/canonicalize"
	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/recovery"
	"github.com/galcurator/galcurator/pkg/store"
)

// API exposes the decision command surface.
type API struct {
	db    *store.Store
	canon *canonicalize.Service
	fuse  *recovery.Fuse
	clock func() time.Time
}

// New creates an API backed by db and canon, gated by fuse.
func New(db *store.Store, canon *canonicalize.Service, fuse *recovery.Fuse) *API {
	return &API{db: db, canon: canon, fuse: fuse, clock: time.Now}
}

// checkFuse returns a retryable ErrorKindServiceUnavailable error if the
// doomsday fuse is tripped.
func (a *API) checkFuse() error {
	if err := a.fuse.CheckWrite(); err != nil {
		return err
	}
	return nil
}

// AcceptCluster invokes canonicalization for clusterID.
func (a *API) AcceptCluster(ctx context.Context, clusterID string, hypotheses []canonicalize.ExternalHypothesis, overrides canonicalize.Overrides) (string, error) {
	if err := a.checkFuse(); err != nil {
		return "", err
	}
	return a.canon.AcceptCluster(ctx, clusterID, hypotheses, overrides)
}

// RejectCluster sets a cluster's status to rejected and reverts every
// member to pending so it can be re-clustered or re-detected later.
func (a *API) RejectCluster(ctx context.Context, clusterID string) error {
	if err := a.checkFuse(); err != nil {
		return err
	}

	now := a.clock()
	return a.db.WithTx(ctx, func(tx *sql.Tx) error {
		cluster, err := store.GetMatchCluster(ctx, tx, clusterID)
		if err == sql.ErrNoRows {
			return kinds.Newf(kinds.ErrorKindOperationFailed, "cluster %q not found", clusterID)
		}
		if err != nil {
			return err
		}
		if cluster.Status != "suggested" {
			return kinds.Newf(kinds.ErrorKindConflict, "cluster %q is not in suggested status", clusterID)
		}

		if err := store.SetClusterStatus(ctx, tx, clusterID, "rejected", now); err != nil {
			return errors.Wrap(err, "unable to reject cluster")
		}
		for _, m := range cluster.Members {
			if err := store.SetScanCandidateStatusByPath(ctx, tx, m.InstancePath, "pending", now); err != nil {
				return errors.Wrapf(err, "unable to revert candidate %q to pending", m.InstancePath)
			}
		}
		return nil
	})
}

// UpdateCanonical applies patch to a canonical game's mutable fields
// (display_title, metadata_snapshot, cover_image_url; is_curated is set
// only via SetCurated).
func (a *API) UpdateCanonical(ctx context.Context, id string, patch store.CanonicalPatch) error {
	if err := a.checkFuse(); err != nil {
		return err
	}
	now := a.clock()
	return a.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := store.GetCanonicalGame(ctx, tx, id); err == sql.ErrNoRows {
			return kinds.Newf(kinds.ErrorKindOperationFailed, "canonical game %q not found", id)
		} else if err != nil {
			return err
		}
		return store.UpdateCanonicalGame(ctx, tx, id, patch, now)
	})
}

// SetCurated flips the curated flag for every id in ids.
func (a *API) SetCurated(ctx context.Context, ids []string, curated bool) error {
	if err := a.checkFuse(); err != nil {
		return err
	}
	now := a.clock()
	return a.db.WithTx(ctx, func(tx *sql.Tx) error {
		return store.SetCurated(ctx, tx, ids, curated, now)
	})
}

// DetachInstance clears a local instance's canonical link without
// deleting the canonical entity. Orphaned canonical games are a
// deliberate outcome; there is no undo beyond detach + re-cluster.
func (a *API) DetachInstance(ctx context.Context, instancePath string) error {
	if err := a.checkFuse(); err != nil {
		return err
	}
	return a.db.WithTx(ctx, func(tx *sql.Tx) error {
		return store.SetLocalInstanceGameID(ctx, tx, instancePath, "")
	})
}
