package index

import (
	"context"
	"database/sql"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// SearchResult is one FTS5 match.
type SearchResult struct {
	DocumentID string
	Snippet    string
}

// IndexContent upserts a document's searchable text into fts_content.
func (s *Store) IndexContent(ctx context.Context, documentID, description, body string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fts_content WHERE document_id = ?`, documentID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO fts_content (document_id, description, body) VALUES (?, ?, ?)`, documentID, description, body)
		return err
	})
}

// Search runs a full-text query over description+body, returning matches
// ordered by FTS5's bm25 relevance rank.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, snippet(fts_content, 2, '[', ']', '...', 10)
		FROM fts_content
		WHERE fts_content MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = rows.Close() }()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocumentID, &r.Snippet); err != nil {
			return nil, &latticeerr.DatabaseError{Reason: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	return out, nil
}
