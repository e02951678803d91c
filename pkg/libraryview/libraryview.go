// Package libraryview implements a read-only projection: a single query
// surface over canonical games, suggested clusters, and orphaned
// instances, assembled entirely by the library_view SQL view so there is
// exactly one place the assembly rules live.
package libraryview

import (
	"context"

	"github.com/galcurator/galcurator/pkg/store"
)

// DefaultPageSize bounds a single page when the caller doesn't specify
// one.
const DefaultPageSize = 50

// Entry is one row of the projection, ready for presentation.
type Entry struct {
	EntryID         string
	EntryType       string
	DisplayTitle    string
	CoverImageURL   string
	Metadata        string
	ClusterID       string
	CanonicalID     string
	InstanceCount   int
	ConfidenceScore *float64
	CreatedAt       string
}

// View wraps the read-only query surface. It never accepts writes; all
// mutation goes through pkg/decision and pkg/canonicalize.
type View struct {
	db *store.Store
}

// New creates a View backed by db.
func New(db *store.Store) *View {
	return &View{db: db}
}

// Page returns up to pageSize entries starting at offset, ordered by
// created_at descending. A pageSize of 0 uses DefaultPageSize.
func (v *View) Page(ctx context.Context, pageSize, offset int) ([]Entry, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	rows, err := store.ListLibraryView(ctx, v.db.DB(), pageSize, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			EntryID:       r.EntryID,
			EntryType:     r.EntryType,
			DisplayTitle:  r.DisplayTitle,
			Metadata:      r.Metadata,
			InstanceCount: r.InstanceCount,
			CreatedAt:     r.CreatedAt,
		}
		if r.CoverImageURL.Valid {
			e.CoverImageURL = r.CoverImageURL.String
		}
		if r.ClusterID.Valid {
			e.ClusterID = r.ClusterID.String
		}
		if r.CanonicalID.Valid {
			e.CanonicalID = r.CanonicalID.String
		}
		if r.ConfidenceScore.Valid {
			score := r.ConfidenceScore.Float64
			e.ConfidenceScore = &score
		}
		entries = append(entries, e)
	}
	return entries, nil
}
