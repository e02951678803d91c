package libraryview

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/galcurator/galcurator/pkg/store"
)

func TestPageAssemblesAllThreeEntryKinds(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	store.InsertCanonicalGame(ctx, db.DB(), store.CanonicalGame{
		ID: "g1", DisplayTitle: "Canonical Game", MetadataSnapshot: "{}",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	store.UpsertLocalInstance(ctx, db.DB(), "/g/cluster-member", "Cluster Game", "sig", time.Now())
	store.InsertMatchCluster(ctx, db.DB(), "c1", "suggested", "Cluster Game", "{}", 0.8,
		[]store.ClusterMemberRow{{InstancePath: "/g/cluster-member", MatchScore: 0.8, IsPrimary: true}}, time.Now())
	store.UpsertLocalInstance(ctx, db.DB(), "/g/orphan", "Orphan Game", "sig", time.Now())

	v := New(db)
	entries, err := v.Page(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.EntryType] = true
	}
	for _, want := range []string{"canonical", "suggested", "orphan"} {
		if !seen[want] {
			t.Fatalf("expected an entry of type %q, got %+v", want, entries)
		}
	}
}

func TestPageDefaultsPageSize(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	v := New(db)
	entries, err := v.Page(context.Background(), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries on an empty store, got %+v", entries)
	}
}
