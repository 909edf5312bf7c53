package index

// schemaVersion is bumped whenever the table layout changes in a way that
// isn't safely migratable in place. Migration policy is refuse-or-rebuild
// (spec §3.7, §4.3): a mismatched version triggers a full reconciliation
// rebuild rather than an ALTER TABLE dance, since the index is entirely
// derivable from the filesystem and git state.
const schemaVersion = 1

// schema defines the SQLite schema for the index store. Adapted from the
// teacher's ephemeral-storage schema pattern (CREATE TABLE IF NOT EXISTS
// blocks, SQLite-dialect defaults, no ON UPDATE CURRENT_TIMESTAMP) and
// generalized to the documents/links/labels/views/content_cache/
// client_counters/directory_roots/index_metadata tables of spec §3.7.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    parent_id TEXT,
    path TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    task_type TEXT,
    is_closed INTEGER NOT NULL DEFAULT 0,
    priority INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    closed_at TEXT,
    body_hash TEXT NOT NULL DEFAULT '',
    indexed_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    content_length INTEGER NOT NULL DEFAULT 0,
    link_count INTEGER NOT NULL DEFAULT 0,
    backlink_count INTEGER NOT NULL DEFAULT 0,
    view_count INTEGER NOT NULL DEFAULT 0,
    is_root INTEGER NOT NULL DEFAULT 0,
    in_tasks_dir INTEGER NOT NULL DEFAULT 0,
    in_docs_dir INTEGER NOT NULL DEFAULT 0,
    skill TEXT
);

CREATE INDEX IF NOT EXISTS idx_documents_task_type ON documents(task_type);
CREATE INDEX IF NOT EXISTS idx_documents_is_closed ON documents(is_closed);
CREATE INDEX IF NOT EXISTS idx_documents_priority ON documents(priority);
CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent_id);

CREATE TABLE IF NOT EXISTS links (
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    link_type TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (source_id, target_id, link_type, position)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);
CREATE INDEX IF NOT EXISTS idx_links_type ON links(link_type);

CREATE TABLE IF NOT EXISTS labels (
    document_id TEXT NOT NULL,
    label TEXT NOT NULL,
    PRIMARY KEY (document_id, label)
);

CREATE INDEX IF NOT EXISTS idx_labels_label ON labels(label);

CREATE TABLE IF NOT EXISTS views (
    document_id TEXT PRIMARY KEY,
    view_count INTEGER NOT NULL DEFAULT 0,
    last_viewed TEXT
);

CREATE TABLE IF NOT EXISTS content_cache (
    document_id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    accessed_at TEXT NOT NULL,
    file_mtime TEXT
);

CREATE TABLE IF NOT EXISTS client_counters (
    client_id TEXT PRIMARY KEY,
    next_counter INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS directory_roots (
    directory_path TEXT PRIMARY KEY,
    root_id TEXT,
    parent_path TEXT,
    depth INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS index_metadata (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    schema_version INTEGER NOT NULL,
    last_indexed TEXT,
    rebuild_in_progress INTEGER NOT NULL DEFAULT 0
);

CREATE VIRTUAL TABLE IF NOT EXISTS fts_content USING fts5(
    document_id UNINDEXED,
    description,
    body
);

-- Triggers keep documents.link_count/backlink_count synchronized with the
-- links table (spec §3.1 invariant 7, §4.3).
CREATE TRIGGER IF NOT EXISTS trg_links_ai AFTER INSERT ON links BEGIN
    UPDATE documents SET link_count = link_count + 1 WHERE id = NEW.source_id;
    UPDATE documents SET backlink_count = backlink_count + 1 WHERE id = NEW.target_id;
END;

CREATE TRIGGER IF NOT EXISTS trg_links_ad AFTER DELETE ON links BEGIN
    UPDATE documents SET link_count = link_count - 1 WHERE id = OLD.source_id;
    UPDATE documents SET backlink_count = backlink_count - 1 WHERE id = OLD.target_id;
END;

-- Triggers mirror views.view_count into documents.view_count (spec §3.7).
CREATE TRIGGER IF NOT EXISTS trg_views_ai AFTER INSERT ON views BEGIN
    UPDATE documents SET view_count = NEW.view_count WHERE id = NEW.document_id;
END;

CREATE TRIGGER IF NOT EXISTS trg_views_au AFTER UPDATE ON views BEGIN
    UPDATE documents SET view_count = NEW.view_count WHERE id = NEW.document_id;
END;
`
