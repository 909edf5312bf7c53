package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// Query returns documents matching filter (spec §4.3). Dynamic WHERE-clause
// assembly is grounded on the ready-calculator's filter-building pattern in
// the teacher's sqlite storage package.
func (s *Store) Query(ctx context.Context, filter DocumentFilter) ([]DocumentRow, error) {
	where, args := buildWhereClause(filter)
	orderBy := buildOrderByClause(filter)

	query := `SELECT ` + documentColumns + ` FROM documents`
	if where != "" {
		query += " WHERE " + where
	}
	query += " " + orderBy
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = rows.Close() }()
	return scanDocuments(rows)
}

// Count returns the number of documents matching filter, ignoring
// Limit/SortBy/SortOrder.
func (s *Store) Count(ctx context.Context, filter DocumentFilter) (int, error) {
	where, args := buildWhereClause(filter)
	query := `SELECT COUNT(*) FROM documents`
	if where != "" {
		query += " WHERE " + where
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, &latticeerr.DatabaseError{Reason: err}
	}
	return count, nil
}

func buildWhereClause(filter DocumentFilter) (string, []any) {
	var clauses []string
	var args []any

	switch filter.State {
	case StateOpen:
		clauses = append(clauses, "is_closed = 0")
	case StateClosed:
		clauses = append(clauses, "is_closed = 1")
	default:
		if !filter.IncludeClosed {
			clauses = append(clauses, "is_closed = 0")
		}
	}

	if filter.PathPrefix != "" {
		clauses = append(clauses, "path LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(filter.PathPrefix)+"%")
	}
	if filter.TaskType != "" {
		clauses = append(clauses, "task_type = ?")
		args = append(args, filter.TaskType)
	}

	for _, label := range filter.LabelsAll {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM labels WHERE labels.document_id = documents.id AND labels.label = ?)")
		args = append(args, label)
	}
	if len(filter.LabelsAny) > 0 {
		placeholders := make([]string, len(filter.LabelsAny))
		for i, label := range filter.LabelsAny {
			placeholders[i] = "?"
			args = append(args, label)
		}
		clauses = append(clauses, "EXISTS (SELECT 1 FROM labels WHERE labels.document_id = documents.id AND labels.label IN ("+strings.Join(placeholders, ",")+"))")
	}

	return strings.Join(clauses, " AND "), args
}

func buildOrderByClause(filter DocumentFilter) string {
	dir := "ASC"
	if filter.SortOrder == Descending {
		dir = "DESC"
	}
	switch filter.SortBy {
	case SortByUpdatedAt:
		return "ORDER BY updated_at " + dir
	case SortByCreatedAt:
		return "ORDER BY created_at " + dir
	case SortByName:
		return "ORDER BY name " + dir
	default:
		return "ORDER BY priority " + dir + ", created_at " + dir
	}
}
