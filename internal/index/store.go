// Package index is the embedded relational store: schema, triggers,
// full-text search, and every query the core runs against the document
// graph (spec §3.7, §4.3). It owns all SQL; no other package issues a raw
// query against the database file.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// Store is a SQLite-backed index over documents, links, and labels.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open creates or opens the index database at path, enabling WAL mode and
// creating the schema if missing (spec §4.3's write-ahead-log discipline).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &latticeerr.DatabaseError{Reason: fmt.Errorf("create index dir: %w", err)}
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal=WAL&_busy_timeout=5000&_foreign_keys=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &latticeerr.DatabaseError{Reason: fmt.Errorf("open index: %w", err)}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &latticeerr.DatabaseError{Reason: fmt.Errorf("ping index: %w", err)}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	current, err := s.currentSchemaVersion()
	if err != nil {
		return err
	}
	if current != 0 && current != schemaVersion {
		// Refuse-or-rebuild: a mismatched version is not migrated in place.
		// The caller (reconciliation engine) is responsible for invoking
		// ResetSchema and performing a full rebuild.
		return &latticeerr.DatabaseError{
			Reason: fmt.Errorf("schema version %d does not match %d: full rebuild required", current, schemaVersion),
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(schema) {
		if _, err := tx.Exec(stmt); err != nil {
			return &latticeerr.DatabaseError{Reason: fmt.Errorf("exec schema statement: %w\nSQL: %s", err, stmt)}
		}
	}

	if _, err := tx.Exec(`INSERT OR IGNORE INTO index_metadata (id, schema_version, last_indexed) VALUES (1, ?, NULL)`, schemaVersion); err != nil {
		return &latticeerr.DatabaseError{Reason: err}
	}

	return tx.Commit()
}

func splitStatements(ddl string) []string {
	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func (s *Store) currentSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='index_metadata'`).Scan(&exists)
	if err != nil {
		return 0, &latticeerr.DatabaseError{Reason: err}
	}
	if exists == 0 {
		return 0, nil
	}
	var version int
	err = s.db.QueryRow(`SELECT schema_version FROM index_metadata WHERE id = 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, &latticeerr.DatabaseError{Reason: err}
	}
	return version, nil
}

// SchemaVersion returns the schema version recorded in index_metadata.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT schema_version FROM index_metadata WHERE id = 1`).Scan(&version)
	if err != nil {
		return 0, &latticeerr.DatabaseError{Reason: err}
	}
	return version, nil
}

// SchemaIsCurrent reports whether the on-disk schema matches this binary's
// expected version.
func (s *Store) SchemaIsCurrent(ctx context.Context) (bool, error) {
	v, err := s.SchemaVersion(ctx)
	if err != nil {
		return false, err
	}
	return v == schemaVersion, nil
}

// ResetSchema drops every table and recreates them empty. Used by the
// reconciliation engine's full-rebuild path when the schema version has
// changed or a prior rebuild crashed.
func (s *Store) ResetSchema(ctx context.Context) error {
	tables := []string{"documents", "links", "labels", "views", "content_cache", "client_counters", "directory_roots", "index_metadata"}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
				return fmt.Errorf("drop table %s: %w", t, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS fts_content"); err != nil {
			return fmt.Errorf("drop fts_content: %w", err)
		}
		for _, stmt := range splitStatements(schema) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("recreate schema: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO index_metadata (id, schema_version, last_indexed) VALUES (1, ?, NULL)`, schemaVersion)
		return err
	})
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Checkpoint flushes the write-ahead log to the main database file.
func (s *Store) Checkpoint(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`)
	if err != nil {
		return &latticeerr.DatabaseError{Reason: err}
	}
	return nil
}

// OptimizeFTS rebuilds the fts_content index, called after a full rebuild.
func (s *Store) OptimizeFTS(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO fts_content(fts_content) VALUES ('optimize')`)
	if err != nil {
		return &latticeerr.DatabaseError{Reason: err}
	}
	return nil
}

// withTx wraps fn in a transaction, matching the teacher's withTx idiom
// (internal/storage/sqlite/dirty.go): any error rolls back the whole batch.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &latticeerr.DatabaseError{Reason: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &latticeerr.DatabaseError{Reason: err}
	}
	return nil
}

// LastIndexedAt returns index_metadata.last_indexed, or the zero time if
// never set.
func (s *Store) LastIndexedAt(ctx context.Context) (time.Time, error) {
	var ts sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT last_indexed FROM index_metadata WHERE id = 1`).Scan(&ts)
	if err != nil {
		return time.Time{}, &latticeerr.DatabaseError{Reason: err}
	}
	if !ts.Valid || ts.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, ts.String)
}

// TouchLastIndexed updates index_metadata.last_indexed to now. Used by the
// fast reconciliation path (spec §4.7), which otherwise does nothing.
func (s *Store) TouchLastIndexed(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE index_metadata SET last_indexed = ? WHERE id = 1`, nowRFC3339())
	if err != nil {
		return &latticeerr.DatabaseError{Reason: err}
	}
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
