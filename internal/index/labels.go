package index

import (
	"context"
	"database/sql"
	"time"
)

// AddLabel attaches label to documentID; idempotent.
func (s *Store) AddLabel(ctx context.Context, documentID, label string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO labels (document_id, label) VALUES (?, ?)`, documentID, label)
		return err
	})
}

// RemoveLabel detaches label from documentID; absence is not an error.
func (s *Store) RemoveLabel(ctx context.Context, documentID, label string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE document_id = ? AND label = ?`, documentID, label)
		return err
	})
}

// LabelsFor returns every label attached to documentID.
func (s *Store) LabelsFor(ctx context.Context, documentID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT label FROM labels WHERE document_id = ? ORDER BY label`, documentID)
}

// ReplaceLabels atomically sets documentID's label set to labels.
func (s *Store) ReplaceLabels(ctx context.Context, documentID string, labels []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE document_id = ?`, documentID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO labels (document_id, label) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, l := range labels {
			if _, err := stmt.ExecContext(ctx, documentID, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteOrphanedLabels removes label rows for documents no longer present in
// the index, used by a full reconciliation pass after it deletes rows for
// paths missing from disk.
func (s *Store) DeleteOrphanedLabels(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE document_id NOT IN (SELECT id FROM documents)`)
		return err
	})
}

// RecordView increments documentID's view count, creating the row if
// absent; a trigger mirrors the total into documents.view_count.
func (s *Store) RecordView(ctx context.Context, documentID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO views (document_id, view_count, last_viewed) VALUES (?, 1, ?)
			ON CONFLICT (document_id) DO UPDATE SET view_count = view_count + 1, last_viewed = excluded.last_viewed
		`, documentID, formatTime(time.Now().UTC()))
		return err
	})
}
