package cluster

import (
	"testing"
	"time"

	"github.com/galcurator/galcurator/pkg/kinds"
)

func exactTitleSimilarity(a, b Candidate) float64 {
	if a.NormalizedTitle == b.NormalizedTitle {
		return 1.0
	}
	return 0.0
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestClusterGroupsByTitleSimilarity(t *testing.T) {
	e := New(Config{Similarity: exactTitleSimilarity, Threshold: 0.8, Clock: fixedClock(time.Unix(0, 0))})

	candidates := []Candidate{
		{InstancePath: "/g/a", NormalizedTitle: "Clannad", Confidence: 0.8},
		{InstancePath: "/g/b", NormalizedTitle: "Clannad", Confidence: 0.95},
		{InstancePath: "/g/c", NormalizedTitle: "Little Busters", Confidence: 0.7},
	}

	clusters, err := e.Cluster(candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected exactly one cluster (the singleton is dropped), got %d: %+v", len(clusters), clusters)
	}
	c := clusters[0]
	if len(c.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(c.Members))
	}
	if c.SuggestedTitle != "Clannad" {
		t.Fatalf("expected suggested title Clannad, got %s", c.SuggestedTitle)
	}
	if c.Status != kinds.ClusterStatusSuggested {
		t.Fatalf("expected status suggested, got %s", c.Status)
	}
	primaryCount := 0
	for _, m := range c.Members {
		if m.IsPrimary {
			primaryCount++
			if m.InstancePath != "/g/b" {
				t.Fatalf("expected highest-confidence member /g/b to be primary, got %s", m.InstancePath)
			}
		}
	}
	if primaryCount != 1 {
		t.Fatalf("expected exactly one primary member, got %d", primaryCount)
	}
}

func TestClusterConfidenceIsMinimumPairwiseLinkScore(t *testing.T) {
	chain := func(a, b Candidate) float64 {
		scores := map[[2]string]float64{
			{"x", "y"}: 0.9,
			{"y", "x"}: 0.9,
			{"y", "z"}: 0.6,
			{"z", "y"}: 0.6,
		}
		key := [2]string{a.InstancePath, b.InstancePath}
		if s, ok := scores[key]; ok {
			return s
		}
		return 0.0
	}
	e := New(Config{Similarity: chain, Threshold: 0.5, Clock: fixedClock(time.Unix(0, 0))})

	candidates := []Candidate{
		{InstancePath: "x", NormalizedTitle: "X", Confidence: 0.5},
		{InstancePath: "y", NormalizedTitle: "Y", Confidence: 0.5},
		{InstancePath: "z", NormalizedTitle: "Z", Confidence: 0.5},
	}

	clusters, err := e.Cluster(candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 || len(clusters[0].Members) != 3 {
		t.Fatalf("expected one transitive cluster of 3, got %+v", clusters)
	}
	if clusters[0].Confidence != 0.6 {
		t.Fatalf("expected cluster confidence to be the minimum pairwise link score 0.6, got %v", clusters[0].Confidence)
	}
}

func TestClusterLinksOnSharedExternalIDEvenWithDissimilarTitles(t *testing.T) {
	e := New(Config{Similarity: exactTitleSimilarity, Threshold: 0.9, Clock: fixedClock(time.Unix(0, 0))})

	candidates := []Candidate{
		{InstancePath: "/g/a", NormalizedTitle: "Title One", Confidence: 0.5, ExternalSourceType: "vndb", ExternalSourceID: "v123"},
		{InstancePath: "/g/b", NormalizedTitle: "Totally Different", Confidence: 0.6, ExternalSourceType: "vndb", ExternalSourceID: "v123"},
	}

	clusters, err := e.Cluster(candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 || len(clusters[0].Members) != 2 {
		t.Fatalf("expected external-id match to link despite dissimilar titles, got %+v", clusters)
	}
}

func TestClusterOmitsSingletonsUnlessConfirmationRequested(t *testing.T) {
	e := New(Config{Similarity: exactTitleSimilarity, Threshold: 0.8, SingleCandidateConfirmation: true, Clock: fixedClock(time.Unix(0, 0))})

	candidates := []Candidate{
		{InstancePath: "/g/a", NormalizedTitle: "Solo Game", Confidence: 0.9},
	}

	clusters, err := e.Cluster(candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected singleton cluster when confirmation is requested, got %+v", clusters)
	}
}
