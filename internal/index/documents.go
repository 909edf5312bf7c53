package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

const documentColumns = `id, parent_id, path, name, description, task_type, is_closed, priority,
    created_at, updated_at, closed_at, body_hash, indexed_at, content_length,
    link_count, backlink_count, view_count, is_root, in_tasks_dir, in_docs_dir, skill`

// Insert adds a new document row (spec §4.3's document CRUD surface).
func (s *Store) Insert(ctx context.Context, d DocumentRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error { return insertTx(ctx, tx, d) })
}

func insertTx(ctx context.Context, tx *sql.Tx, d DocumentRow) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?)
	`,
		d.ID, nullableString(d.ParentID), d.Path, d.Name, d.Description, nullableString(d.TaskType),
		boolToInt(d.IsClosed), d.Priority,
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt), formatNullTime(d.ClosedAt),
		d.BodyHash, formatTime(time.Now().UTC()), d.ContentLength,
		boolToInt(d.IsRoot), boolToInt(d.InTasksDir), boolToInt(d.InDocsDir), nullableString(d.Skill),
	)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", d.ID, err)
	}
	return nil
}

// InsertBatch wraps insertTx calls in a single transaction (spec §4.3).
func (s *Store) InsertBatch(ctx context.Context, docs []DocumentRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range docs {
			if err := insertTx(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// DocumentUpdate carries only the fields to change; nil means "leave as is".
// Mirrors the builder-pattern update used in the original source.
type DocumentUpdate struct {
	Path        *string
	Name        *string
	Description *string
	TaskType    *string
	IsClosed    *bool
	Priority    **int
	ClosedAt    **time.Time
	BodyHash    *string
	ContentLength *int
	IsRoot      *bool
	InTasksDir  *bool
	InDocsDir   *bool
	Skill       *string
}

// Update dynamically builds an UPDATE statement from the non-nil fields of
// u, always touching indexed_at. Returns whether a row was affected.
func (s *Store) Update(ctx context.Context, id string, u DocumentUpdate) (bool, error) {
	var set []string
	var args []any

	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	if u.Path != nil {
		add("path", *u.Path)
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.TaskType != nil {
		add("task_type", nullableString(*u.TaskType))
	}
	if u.IsClosed != nil {
		add("is_closed", boolToInt(*u.IsClosed))
	}
	if u.Priority != nil {
		add("priority", *u.Priority)
	}
	if u.ClosedAt != nil {
		add("closed_at", formatNullTime(*u.ClosedAt))
	}
	if u.BodyHash != nil {
		add("body_hash", *u.BodyHash)
	}
	if u.ContentLength != nil {
		add("content_length", *u.ContentLength)
	}
	if u.IsRoot != nil {
		add("is_root", boolToInt(*u.IsRoot))
	}
	if u.InTasksDir != nil {
		add("in_tasks_dir", boolToInt(*u.InTasksDir))
	}
	if u.InDocsDir != nil {
		add("in_docs_dir", boolToInt(*u.InDocsDir))
	}
	if u.Skill != nil {
		add("skill", nullableString(*u.Skill))
	}
	add("updated_at", formatTime(time.Now().UTC()))
	add("indexed_at", formatTime(time.Now().UTC()))

	query := "UPDATE documents SET " + strings.Join(set, ", ") + " WHERE id = ?"
	args = append(args, id)

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, &latticeerr.DatabaseError{Reason: err}
	}
	return affected > 0, nil
}

// DeleteByID removes one document row (does not touch the filesystem).
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		return err
	})
}

// DeleteBatch removes multiple document rows in one transaction.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM documents WHERE id = ?`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByPathPrefix removes every document whose path starts with prefix;
// used by the full-rebuild reconciliation path.
func (s *Store) DeleteByPathPrefix(ctx context.Context, prefix string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
		return err
	})
}

// LookupByID returns the document with id, or latticeerr.ErrNotFound.
func (s *Store) LookupByID(ctx context.Context, id string) (*DocumentRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row, id)
}

// LookupByPath returns the document at path, or latticeerr.ErrNotFound.
func (s *Store) LookupByPath(ctx context.Context, path string) (*DocumentRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE path = ?`, path)
	return scanDocument(row, path)
}

// LookupByName returns every document with the given name (names are not
// guaranteed unique).
func (s *Store) LookupByName(ctx context.Context, name string) ([]DocumentRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE name = ?`, name)
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = rows.Close() }()
	return scanDocuments(rows)
}

// Exists reports whether id is indexed.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, &latticeerr.DatabaseError{Reason: err}
	}
	return count > 0, nil
}

// ExistsAtPath reports whether any document is indexed at path.
func (s *Store) ExistsAtPath(ctx context.Context, path string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE path = ?`, path).Scan(&count)
	if err != nil {
		return false, &latticeerr.DatabaseError{Reason: err}
	}
	return count > 0, nil
}

// AllIDs returns every indexed document ID.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT id FROM documents ORDER BY id`)
}

// AllPaths returns every indexed document path.
func (s *Store) AllPaths(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT path FROM documents ORDER BY path`)
}

// IDsByPrefix returns up to limit IDs starting with prefix. Implemented
// exactly once (spec §9: the source carried an identical duplicate).
func (s *Store) IDsByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM documents WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT ?
	`, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, &latticeerr.DatabaseError{Reason: err}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner, key string) (*DocumentRow, error) {
	var d DocumentRow
	var parentID, taskType, skill sql.NullString
	var priority sql.NullInt64
	var createdAt, updatedAt, indexedAt string
	var closedAt sql.NullString
	var isClosed, isRoot, inTasks, inDocs int

	err := r.Scan(
		&d.ID, &parentID, &d.Path, &d.Name, &d.Description, &taskType, &isClosed, &priority,
		&createdAt, &updatedAt, &closedAt, &d.BodyHash, &indexedAt, &d.ContentLength,
		&d.LinkCount, &d.BacklinkCount, &d.ViewCount, &isRoot, &inTasks, &inDocs, &skill,
	)
	if err == sql.ErrNoRows {
		return nil, &latticeerr.DocumentNotFoundError{ID: key}
	}
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}

	d.ParentID = parentID.String
	d.TaskType = taskType.String
	d.Skill = skill.String
	d.IsClosed = isClosed != 0
	d.IsRoot = isRoot != 0
	d.InTasksDir = inTasks != 0
	d.InDocsDir = inDocs != 0
	if priority.Valid {
		p := int(priority.Int64)
		d.Priority = &p
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	d.IndexedAt = parseTime(indexedAt)
	if closedAt.Valid && closedAt.String != "" {
		t := parseTime(closedAt.String)
		d.ClosedAt = &t
	}
	return &d, nil
}

func scanDocuments(rows *sql.Rows) ([]DocumentRow, error) {
	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, &latticeerr.DatabaseError{Reason: err}
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
