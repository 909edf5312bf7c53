package index

import (
	"context"
	"database/sql"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// InsertForDocument inserts every link row for one source document. Callers
// replace a document's outgoing links atomically by combining this with
// DeleteBySource inside one transaction (spec §4.7's incremental path).
func (s *Store) InsertForDocument(ctx context.Context, links []LinkRow) error {
	if len(links) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error { return insertLinksTx(ctx, tx, links) })
}

func insertLinksTx(ctx context.Context, tx *sql.Tx, links []LinkRow) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO links (source_id, target_id, link_type, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, l := range links {
		if _, err := stmt.ExecContext(ctx, l.SourceID, l.TargetID, string(l.Type), l.Position); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceSourceLinks deletes all existing links from sourceID and inserts
// the replacement set atomically (spec §4.7).
func (s *Store) ReplaceSourceLinks(ctx context.Context, sourceID string, links []LinkRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE source_id = ?`, sourceID); err != nil {
			return err
		}
		return insertLinksTx(ctx, tx, links)
	})
}

// DeleteBySource removes every link whose source is sourceID.
func (s *Store) DeleteBySource(ctx context.Context, sourceID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM links WHERE source_id = ?`, sourceID)
		return err
	})
}

// DeleteByTarget removes every link whose target is targetID.
func (s *Store) DeleteByTarget(ctx context.Context, targetID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM links WHERE target_id = ?`, targetID)
		return err
	})
}

// DeleteBySourceAndTarget removes link rows between a specific pair,
// regardless of type; used by dep remove to delete both directions (spec
// §9 dep_command grounding).
func (s *Store) DeleteBySourceAndTarget(ctx context.Context, sourceID, targetID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM links WHERE source_id = ? AND target_id = ?`, sourceID, targetID)
		return err
	})
}

// QueryOutgoing returns every link row with sourceID as source.
func (s *Store) QueryOutgoing(ctx context.Context, sourceID string) ([]LinkRow, error) {
	return s.queryLinks(ctx, `SELECT source_id, target_id, link_type, position FROM links WHERE source_id = ? ORDER BY position`, sourceID)
}

// QueryOutgoingByType returns sourceID's outgoing links of one type.
func (s *Store) QueryOutgoingByType(ctx context.Context, sourceID string, t LinkType) ([]LinkRow, error) {
	return s.queryLinks(ctx, `SELECT source_id, target_id, link_type, position FROM links WHERE source_id = ? AND link_type = ? ORDER BY position`, sourceID, string(t))
}

// QueryIncoming returns every link row with targetID as target.
func (s *Store) QueryIncoming(ctx context.Context, targetID string) ([]LinkRow, error) {
	return s.queryLinks(ctx, `SELECT source_id, target_id, link_type, position FROM links WHERE target_id = ? ORDER BY position`, targetID)
}

// QueryIncomingByType returns targetID's incoming links of one type.
func (s *Store) QueryIncomingByType(ctx context.Context, targetID string, t LinkType) ([]LinkRow, error) {
	return s.queryLinks(ctx, `SELECT source_id, target_id, link_type, position FROM links WHERE target_id = ? AND link_type = ? ORDER BY position`, targetID, string(t))
}

func (s *Store) queryLinks(ctx context.Context, query string, args ...any) ([]LinkRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = rows.Close() }()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		var linkType string
		if err := rows.Scan(&l.SourceID, &l.TargetID, &linkType, &l.Position); err != nil {
			return nil, &latticeerr.DatabaseError{Reason: err}
		}
		l.Type = LinkType(linkType)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	return out, nil
}

// CountOutgoing returns the number of outgoing links from sourceID.
func (s *Store) CountOutgoing(ctx context.Context, sourceID string) (int, error) {
	return s.countWhere(ctx, `SELECT COUNT(*) FROM links WHERE source_id = ?`, sourceID)
}

// CountIncoming returns the number of incoming links to targetID.
func (s *Store) CountIncoming(ctx context.Context, targetID string) (int, error) {
	return s.countWhere(ctx, `SELECT COUNT(*) FROM links WHERE target_id = ?`, targetID)
}

func (s *Store) countWhere(ctx context.Context, query string, arg string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, &latticeerr.DatabaseError{Reason: err}
	}
	return n, nil
}

// LinkExists reports whether a link row between source/target/type exists.
func (s *Store) LinkExists(ctx context.Context, sourceID, targetID string, t LinkType) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE source_id = ? AND target_id = ? AND link_type = ?`, sourceID, targetID, string(t)).Scan(&n)
	if err != nil {
		return false, &latticeerr.DatabaseError{Reason: err}
	}
	return n > 0, nil
}

// FindOrphanSources returns distinct source IDs in links that no longer
// have a matching document row; used by the chaos invariants checker.
func (s *Store) FindOrphanSources(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `
		SELECT DISTINCT links.source_id FROM links
		LEFT JOIN documents ON documents.id = links.source_id
		WHERE documents.id IS NULL
	`)
}

// GetTargetIDs returns the distinct target IDs sourceID links to.
func (s *Store) GetTargetIDs(ctx context.Context, sourceID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT target_id FROM links WHERE source_id = ?`, sourceID)
}

// GetSourceIDs returns the distinct source IDs that link to targetID.
func (s *Store) GetSourceIDs(ctx context.Context, targetID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT source_id FROM links WHERE target_id = ?`, targetID)
}
