package index

import (
	"context"
	"database/sql"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// NextCounter atomically reads and increments client_counters[clientID],
// returning the value to encode into the new ID (spec §3.2, §4.1). Callers
// must perform the document insert that references the result inside the
// same transaction; on abort the increment is rolled back with it, so no
// counter value is ever observed on two distinct documents.
func (s *Store) NextCounter(ctx context.Context, tx *sql.Tx, clientID string) (uint64, error) {
	var current uint64
	err := tx.QueryRowContext(ctx, `SELECT next_counter FROM client_counters WHERE client_id = ?`, clientID).Scan(&current)
	if err == sql.ErrNoRows {
		current = 0
	} else if err != nil {
		return 0, &latticeerr.DatabaseError{Reason: err}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO client_counters (client_id, next_counter) VALUES (?, ?)
		ON CONFLICT (client_id) DO UPDATE SET next_counter = excluded.next_counter
	`, clientID, current+1)
	if err != nil {
		return 0, &latticeerr.DatabaseError{Reason: err}
	}
	return current, nil
}

// WithTx exposes the store's transaction wrapper to callers that must
// combine a counter mint with a document insert atomically (spec §4.1).
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withTx(ctx, fn)
}

// UpsertDirectoryRoot records or updates one directory's computed root
// document, used by the reconciliation engine while walking the tree.
func (s *Store) UpsertDirectoryRoot(ctx context.Context, directoryPath, rootID, parentPath string, depth int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO directory_roots (directory_path, root_id, parent_path, depth) VALUES (?, ?, ?, ?)
			ON CONFLICT (directory_path) DO UPDATE SET root_id = excluded.root_id, parent_path = excluded.parent_path, depth = excluded.depth
		`, directoryPath, rootID, parentPath, depth)
		return err
	})
}

// DirectoryRoot returns the recorded root document ID for directoryPath.
func (s *Store) DirectoryRoot(ctx context.Context, directoryPath string) (string, error) {
	var rootID sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT root_id FROM directory_roots WHERE directory_path = ?`, directoryPath).Scan(&rootID)
	if err == sql.ErrNoRows {
		return "", &latticeerr.DocumentNotFoundError{ID: directoryPath}
	}
	if err != nil {
		return "", &latticeerr.DatabaseError{Reason: err}
	}
	return rootID.String, nil
}
