package store

import (
	"context"
	"database/sql"
	"time"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, letting every
// function in this file run either standalone or inside Store.WithTx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// CanonicalGame mirrors the canonical_game table.
type CanonicalGame struct {
	ID               string
	DisplayTitle     string
	MetadataSnapshot string
	CoverImageURL    sql.NullString
	IsCurated        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// GetCanonicalGame fetches a canonical game by id. It returns
// sql.ErrNoRows if none exists.
func GetCanonicalGame(ctx context.Context, q Querier, id string) (CanonicalGame, error) {
	var g CanonicalGame
	var isCurated int
	err := q.QueryRowContext(ctx, `
		SELECT id, display_title, metadata_snapshot, cover_image_url, is_curated, created_at, updated_at
		FROM canonical_game WHERE id = ?`, id).Scan(
		&g.ID, &g.DisplayTitle, &g.MetadataSnapshot, &g.CoverImageURL, &isCurated, &g.CreatedAt, &g.UpdatedAt,
	)
	g.IsCurated = isCurated != 0
	return g, err
}

// InsertCanonicalGame creates a new canonical game row.
func InsertCanonicalGame(ctx context.Context, q Querier, g CanonicalGame) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO canonical_game (id, display_title, metadata_snapshot, cover_image_url, is_curated, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		g.ID, g.DisplayTitle, g.MetadataSnapshot, g.CoverImageURL, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// CanonicalPatch describes the mutable canonical_game fields allowed to
// change after creation. A nil field leaves the existing column
// untouched.
type CanonicalPatch struct {
	DisplayTitle     *string
	MetadataSnapshot *string
	CoverImageURL    *string
}

// UpdateCanonicalGame applies patch to id's mutable fields, bumping
// updated_at. It is a no-op (but not an error) if patch sets nothing.
func UpdateCanonicalGame(ctx context.Context, q Querier, id string, patch CanonicalPatch, now time.Time) error {
	if patch.DisplayTitle == nil && patch.MetadataSnapshot == nil && patch.CoverImageURL == nil {
		return nil
	}

	set := "updated_at = ?"
	args := []interface{}{now}
	if patch.DisplayTitle != nil {
		set += ", display_title = ?"
		args = append(args, *patch.DisplayTitle)
	}
	if patch.MetadataSnapshot != nil {
		set += ", metadata_snapshot = ?"
		args = append(args, *patch.MetadataSnapshot)
	}
	if patch.CoverImageURL != nil {
		set += ", cover_image_url = ?"
		args = append(args, *patch.CoverImageURL)
	}
	args = append(args, id)

	_, err := q.ExecContext(ctx, "UPDATE canonical_game SET "+set+" WHERE id = ?", args...)
	return err
}

// SetCurated flips is_curated for every id in ids, a later user act
// never touched by canonicalization.
func SetCurated(ctx context.Context, q Querier, ids []string, curated bool, now time.Time) error {
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `
			UPDATE canonical_game SET is_curated = ?, updated_at = ? WHERE id = ?`,
			curated, now, id,
		); err != nil {
			return err
		}
	}
	return nil
}

// IdentityLinkOwner returns the canonical_id a given (source_type,
// external_id) pair is already linked to, or ok=false if unlinked.
func IdentityLinkOwner(ctx context.Context, q Querier, sourceType, externalID string) (string, bool, error) {
	var canonicalID string
	err := q.QueryRowContext(ctx, `
		SELECT canonical_id FROM identity_link WHERE source_type = ? AND external_id = ?`,
		sourceType, externalID).Scan(&canonicalID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return canonicalID, true, nil
}

// InsertIdentityLink creates a new identity link. Callers must have
// already checked IdentityLinkOwner for conflicts.
func InsertIdentityLink(ctx context.Context, q Querier, canonicalID, sourceType, externalID string, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO identity_link (canonical_id, source_type, external_id, created_at)
		VALUES (?, ?, ?, ?)`, canonicalID, sourceType, externalID, now)
	return err
}

// SetLocalInstanceGameID points a local instance at a canonical game, or
// detaches it (gameID == "") without deleting the canonical row.
func SetLocalInstanceGameID(ctx context.Context, q Querier, folderPath, gameID string) error {
	var arg interface{}
	if gameID != "" {
		arg = gameID
	}
	_, err := q.ExecContext(ctx, `UPDATE local_instance SET game_id = ? WHERE folder_path = ?`, arg, folderPath)
	return err
}

// GetLocalInstanceGameID returns the canonical game a local instance is
// currently linked to, and whether it is linked at all.
func GetLocalInstanceGameID(ctx context.Context, q Querier, folderPath string) (string, bool, error) {
	var gameID sql.NullString
	err := q.QueryRowContext(ctx, `SELECT game_id FROM local_instance WHERE folder_path = ?`, folderPath).Scan(&gameID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return gameID.String, gameID.Valid, nil
}

// UpsertLocalInstance inserts or updates a local instance row, leaving
// game_id untouched if the row already exists.
func UpsertLocalInstance(ctx context.Context, q Querier, folderPath, displayTitle, scanSignature string, folderMtime time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO local_instance (folder_path, display_title, scan_signature, folder_mtime)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(folder_path) DO UPDATE SET
			display_title = excluded.display_title,
			scan_signature = excluded.scan_signature,
			folder_mtime = excluded.folder_mtime`,
		folderPath, displayTitle, scanSignature, folderMtime)
	return err
}

// InsertCanonicalSourceLink records provenance for a canonical entity
// creation. Its primary key gives natural idempotency: inserting the same
// tuple twice is a no-op.
func InsertCanonicalSourceLink(ctx context.Context, q Querier, entityType, entityID, sourceType, sourceID, sourceHash string, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO canonical_source_link (entity_type, entity_id, source_type, source_id, source_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id, source_type, source_id) DO NOTHING`,
		entityType, entityID, sourceType, sourceID, sourceHash, now)
	return err
}

// ClusterMemberRow mirrors a match_cluster_member row.
type ClusterMemberRow struct {
	InstancePath string
	MatchScore   float64
	IsPrimary    bool
}

// InsertMatchCluster writes a cluster and all of its members.
func InsertMatchCluster(ctx context.Context, q Querier, id, status, suggestedTitle, metadataSnapshot string, confidence float64, members []ClusterMemberRow, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO match_cluster (id, status, confidence, suggested_title, metadata_snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, id, status, confidence, suggestedTitle, metadataSnapshot, now, now)
	if err != nil {
		return err
	}
	for _, m := range members {
		isPrimary := 0
		if m.IsPrimary {
			isPrimary = 1
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO match_cluster_member (cluster_id, instance_path, match_score, is_primary)
			VALUES (?, ?, ?, ?)`, id, m.InstancePath, m.MatchScore, isPrimary); err != nil {
			return err
		}
	}
	return nil
}

// MatchCluster mirrors a match_cluster row plus its members.
type MatchCluster struct {
	ID                   string
	Status               string
	Confidence           float64
	SuggestedTitle       string
	SuggestedCanonicalID sql.NullString
	Members              []ClusterMemberRow
}

// GetMatchCluster fetches a cluster and its members by id.
func GetMatchCluster(ctx context.Context, q Querier, id string) (MatchCluster, error) {
	var c MatchCluster
	err := q.QueryRowContext(ctx, `
		SELECT id, status, confidence, suggested_title, suggested_canonical_id
		FROM match_cluster WHERE id = ?`, id).Scan(
		&c.ID, &c.Status, &c.Confidence, &c.SuggestedTitle, &c.SuggestedCanonicalID,
	)
	if err != nil {
		return c, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT instance_path, match_score, is_primary FROM match_cluster_member WHERE cluster_id = ?`, id)
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var m ClusterMemberRow
		var isPrimary int
		if err := rows.Scan(&m.InstancePath, &m.MatchScore, &isPrimary); err != nil {
			return c, err
		}
		m.IsPrimary = isPrimary != 0
		c.Members = append(c.Members, m)
	}
	return c, rows.Err()
}

// SetClusterStatus updates a cluster's status.
func SetClusterStatus(ctx context.Context, q Querier, id, status string, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE match_cluster SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	return err
}

// SetIdentityMatchCandidateStatus transitions an IdentityMatchCandidate,
// e.g. to "canonicalized" after a successful promotion.
func SetIdentityMatchCandidateStatus(ctx context.Context, q Querier, path, status string) error {
	_, err := q.ExecContext(ctx, `UPDATE identity_match_candidate SET status = ? WHERE path = ?`, status, path)
	return err
}

// SetScanCandidateStatus transitions a ScanCandidate to a terminal status.
func SetScanCandidateStatus(ctx context.Context, q Querier, id, status string, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE scan_candidate SET status = ?, confirmed_at = ? WHERE id = ?`, status, now, id)
	return err
}

// SetScanCandidateStatusByPath transitions a ScanCandidate identified by
// its folder path rather than its id, used when reverting cluster
// members on rejection.
func SetScanCandidateStatusByPath(ctx context.Context, q Querier, path, status string, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE scan_candidate SET status = ?, confirmed_at = ? WHERE path = ?`, status, now, path)
	return err
}

// InsertScanCandidate persists a freshly detected candidate.
func InsertScanCandidate(ctx context.Context, q Querier, id, path, title, engine string, confidence float64, indicators string, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO scan_candidate (id, path, detected_title, detected_engine, confidence, indicators, status, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)
		ON CONFLICT(path) DO UPDATE SET
			detected_title = excluded.detected_title,
			detected_engine = excluded.detected_engine,
			confidence = excluded.confidence,
			indicators = excluded.indicators`,
		id, path, title, nullIfEmpty(engine), confidence, indicators, now)
	return err
}

// ScanCandidateRow is one row of the scan_candidate table.
type ScanCandidateRow struct {
	ID         string
	Path       string
	Title      string
	Confidence float64
}

// ListPendingScanCandidates returns every candidate still awaiting
// clustering, oldest first.
func ListPendingScanCandidates(ctx context.Context, q Querier) ([]ScanCandidateRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, path, detected_title, confidence
		FROM scan_candidate WHERE status = 'pending'
		ORDER BY detected_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScanCandidateRow
	for rows.Next() {
		var r ScanCandidateRow
		if err := rows.Scan(&r.ID, &r.Path, &r.Title, &r.Confidence); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// LibraryViewRow mirrors one row of the library_view SQL view.
type LibraryViewRow struct {
	EntryID         string
	EntryType       string
	DisplayTitle    string
	CoverImageURL   sql.NullString
	Metadata        string
	ClusterID       sql.NullString
	CanonicalID     sql.NullString
	InstanceCount   int
	ConfidenceScore sql.NullFloat64
	CreatedAt       string
}

// ListLibraryView returns a page of the library_view, ordered by
// created_at descending.
func ListLibraryView(ctx context.Context, q Querier, limit, offset int) ([]LibraryViewRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT entry_id, entry_type, display_title, cover_image_url, metadata,
		       cluster_id, canonical_id, instance_count, confidence_score, created_at
		FROM library_view
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LibraryViewRow
	for rows.Next() {
		var r LibraryViewRow
		if err := rows.Scan(
			&r.EntryID, &r.EntryType, &r.DisplayTitle, &r.CoverImageURL, &r.Metadata,
			&r.ClusterID, &r.CanonicalID, &r.InstanceCount, &r.ConfidenceScore, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
