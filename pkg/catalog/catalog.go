// Package catalog wraps the external catalog adapter that the cluster
// engine and canonicalization service consume. The adapter itself (HTTP
// transport, a given catalog's API shape) is left to the caller; this
// package owns the rate limiting and retry policy around it, since
// retries are never automatic anywhere else in the pipeline.
package catalog

import "context"

// Hypothesis is a candidate identity returned by lookup_by_title.
type Hypothesis struct {
	SourceType string
	SourceID   string
	Title      string
	Confidence float64
}

// Snapshot is the metadata a catalog returns for a known external id.
type Snapshot struct {
	SourceType string
	SourceID   string
	Title      string
	CoverURL   string
	Raw        map[string]string
}

// Adapter is the contract an external catalog client must satisfy. It is
// consumed, never implemented, by the core.
type Adapter interface {
	LookupByTitle(ctx context.Context, title string) ([]Hypothesis, error)
	FetchByExternalID(ctx context.Context, sourceType, sourceID string) (Snapshot, error)
}
