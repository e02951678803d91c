package canonicalize

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSuggestedCluster(t *testing.T, db *store.Store, id string, members []store.ClusterMemberRow) {
	t.Helper()
	ctx := context.Background()
	for _, m := range members {
		if err := store.UpsertLocalInstance(ctx, db.DB(), m.InstancePath, "Title", "sig", time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.InsertMatchCluster(ctx, db.DB(), id, "suggested", "Clannad", "{}", 0.9, members, time.Now()); err != nil {
		t.Fatal(err)
	}
}

func TestAcceptClusterMintsCanonicalAndLinksMembers(t *testing.T) {
	db := openTestStore(t)
	svc := New(db)
	ctx := context.Background()

	seedSuggestedCluster(t, db, "c1", []store.ClusterMemberRow{
		{InstancePath: "/g/a", MatchScore: 0.9, IsPrimary: true},
		{InstancePath: "/g/b", MatchScore: 0.9},
	})

	canonicalID, err := svc.AcceptCluster(ctx, "c1", []ExternalHypothesis{
		{SourceType: "vndb", SourceID: "v1", SourceHash: "h1"},
	}, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if canonicalID == "" {
		t.Fatal("expected a minted canonical id")
	}

	game, err := store.GetCanonicalGame(ctx, db.DB(), canonicalID)
	if err != nil {
		t.Fatal(err)
	}
	if game.DisplayTitle != "Clannad" {
		t.Fatalf("expected display title Clannad, got %s", game.DisplayTitle)
	}

	owner, ok, err := store.IdentityLinkOwner(ctx, db.DB(), "vndb", "v1")
	if err != nil || !ok || owner != canonicalID {
		t.Fatalf("expected identity link to canonical id, got owner=%q ok=%v err=%v", owner, ok, err)
	}

	cluster, err := store.GetMatchCluster(ctx, db.DB(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if cluster.Status != "accepted" {
		t.Fatalf("expected cluster status accepted, got %s", cluster.Status)
	}
}

func TestAcceptClusterRejectsConflictingIdentityLink(t *testing.T) {
	db := openTestStore(t)
	svc := New(db)
	ctx := context.Background()

	seedSuggestedCluster(t, db, "c1", []store.ClusterMemberRow{{InstancePath: "/g/a", MatchScore: 0.9, IsPrimary: true}})
	seedSuggestedCluster(t, db, "c2", []store.ClusterMemberRow{{InstancePath: "/g/b", MatchScore: 0.9, IsPrimary: true}})

	if _, err := svc.AcceptCluster(ctx, "c1", []ExternalHypothesis{{SourceType: "vndb", SourceID: "v1", SourceHash: "h1"}}, Overrides{}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.AcceptCluster(ctx, "c2", []ExternalHypothesis{{SourceType: "vndb", SourceID: "v1", SourceHash: "h2"}}, Overrides{})
	if err == nil {
		t.Fatal("expected conflict error when two canonical games claim the same external id")
	}
	if !kinds.Is(err, kinds.ErrorKindConflict) {
		t.Fatalf("expected ErrorKindConflict, got %v", err)
	}

	cluster, getErr := store.GetMatchCluster(ctx, db.DB(), "c2")
	if getErr != nil {
		t.Fatal(getErr)
	}
	if cluster.Status != "suggested" {
		t.Fatal("expected failed promotion to leave the cluster untouched (rolled back)")
	}
}

func TestAcceptClusterRejectsNonSuggestedCluster(t *testing.T) {
	db := openTestStore(t)
	svc := New(db)
	ctx := context.Background()

	seedSuggestedCluster(t, db, "c1", []store.ClusterMemberRow{{InstancePath: "/g/a", MatchScore: 0.9, IsPrimary: true}})
	if err := store.SetClusterStatus(ctx, db.DB(), "c1", "rejected", time.Now()); err != nil {
		t.Fatal(err)
	}

	_, err := svc.AcceptCluster(ctx, "c1", nil, Overrides{})
	if err == nil {
		t.Fatal("expected error promoting an already-rejected cluster")
	}
}

func TestInsertCanonicalSourceLinkToleratesRepeatedProvenanceTuple(t *testing.T) {
	db := openTestStore(t)
	svc := New(db)
	ctx := context.Background()

	seedSuggestedCluster(t, db, "c1", []store.ClusterMemberRow{{InstancePath: "/g/a", MatchScore: 0.9, IsPrimary: true}})
	canonicalID, err := svc.AcceptCluster(ctx, "c1", []ExternalHypothesis{{SourceType: "vndb", SourceID: "v1", SourceHash: "h1"}}, Overrides{})
	if err != nil {
		t.Fatal(err)
	}

	// Re-attaching the same provenance tuple directly must not error
	// thanks to the ON CONFLICT DO NOTHING idempotency key.
	if err := store.InsertCanonicalSourceLink(ctx, db.DB(), "canonical_game", canonicalID, "vndb", "v1", "h1", time.Now()); err != nil {
		t.Fatal(err)
	}
}

func TestAcceptClusterTwiceYieldsSameCanonicalIDAndLinkCount(t *testing.T) {
	db := openTestStore(t)
	svc := New(db)
	ctx := context.Background()

	seedSuggestedCluster(t, db, "c1", []store.ClusterMemberRow{
		{InstancePath: "/g/a", MatchScore: 0.9, IsPrimary: true},
		{InstancePath: "/g/b", MatchScore: 0.9},
	})
	hypotheses := []ExternalHypothesis{{SourceType: "vndb", SourceID: "v1", SourceHash: "h1"}}

	first, err := svc.AcceptCluster(ctx, "c1", hypotheses, Overrides{})
	if err != nil {
		t.Fatal(err)
	}

	second, err := svc.AcceptCluster(ctx, "c1", hypotheses, Overrides{})
	if err != nil {
		t.Fatalf("re-running accept_cluster on an already-accepted cluster must be a no-op, got error: %v", err)
	}
	if second != first {
		t.Fatalf("expected the same canonical id on re-accept, got %q then %q", first, second)
	}

	var linkCount int
	if err := db.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM canonical_source_link WHERE entity_type = 'canonical_game' AND entity_id = ?`, first,
	).Scan(&linkCount); err != nil {
		t.Fatal(err)
	}
	if linkCount != 1 {
		t.Fatalf("expected exactly 1 provenance link after two accepts, got %d", linkCount)
	}

	for _, path := range []string{"/g/a", "/g/b"} {
		gameID, linked, err := store.GetLocalInstanceGameID(ctx, db.DB(), path)
		if err != nil {
			t.Fatal(err)
		}
		if !linked || gameID != first {
			t.Fatalf("expected %q linked to %q, got linked=%v gameID=%q", path, first, linked, gameID)
		}
	}
}
