package canonicalize

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/store"
)

// AcceptCandidate promotes a single directly-accepted IdentityMatchCandidate
// into canonical truth, reusing the same mint-or-reuse and identity-link
// machinery as AcceptCluster but without a MatchCluster row to update;
// the candidate's own status is flipped to canonicalized on success.
func (s *Service) AcceptCandidate(ctx context.Context, instancePath, detectedTitle string, hypotheses []ExternalHypothesis, overrides Overrides) (canonicalID string, err error) {
	now := s.clock()

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		id, mintErr := s.mintOrReuseCanonical(ctx, tx, "", overrides.CanonicalID, detectedTitle, now)
		if mintErr != nil {
			return mintErr
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

		if err := store.SetLocalInstanceGameID(ctx, tx, instancePath, canonicalID); err != nil {
			return errors.Wrapf(err, "unable to link instance %q", instancePath)
		}

		return store.SetIdentityMatchCandidateStatus(ctx, tx, instancePath, "canonicalized")
	})

	return canonicalID, err
}
