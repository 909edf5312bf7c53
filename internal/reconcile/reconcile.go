// Package reconcile implements the three-tier reconciliation engine (spec
// §4.7): a fast no-op path when nothing changed since the last index, an
// incremental path driven by git's dirty set, and a full filesystem walk
// when incremental reconciliation cannot be trusted. The full-scan walker
// is grounded on the teacher's filepath.WalkDir spec-scanning routine,
// retargeted from spec-file discovery to markdown document discovery.
package reconcile

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/lattice-run/lattice/internal/document"
	"github.com/lattice-run/lattice/internal/gitops"
	"github.com/lattice-run/lattice/internal/index"
	"github.com/lattice-run/lattice/internal/linkextract"
)

// Tier names which reconciliation path ran.
type Tier int

const (
	Fast Tier = iota
	Incremental
	Full
)

func (t Tier) String() string {
	switch t {
	case Fast:
		return "fast"
	case Incremental:
		return "incremental"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Result summarizes one reconciliation run.
type Result struct {
	Tier     Tier
	Reindexed int
	Removed   int
}

// Engine drives reconciliation against a repo root.
type Engine struct {
	Root  string
	Index *index.Store
	Git   gitops.GitOps
}

// New constructs an Engine.
func New(root string, idx *index.Store, git gitops.GitOps) *Engine {
	return &Engine{Root: root, Index: idx, Git: git}
}

// Reconcile picks the cheapest sufficient tier and runs it: fast if HEAD is
// unchanged and the tree is clean, incremental if only the dirty set
// changed, full otherwise. An incremental run that fails falls back to a
// full rebuild exactly once (spec §7's single bounded retry).
func (e *Engine) Reconcile(ctx context.Context) (Result, error) {
	head, err := e.Git.CurrentHead(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read current head: %w", err)
	}
	lastHead, err := e.Index.DirectoryRoot(ctx, rootMarkerKey)
	headUnchanged := err == nil && lastHead == head

	dirty, err := e.Git.DirtyMarkdownPaths(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list dirty markdown paths: %w", err)
	}

	if headUnchanged && len(dirty) == 0 {
		return Result{Tier: Fast}, nil
	}

	if headUnchanged {
		result, err := e.runIncremental(ctx, dirty)
		if err == nil {
			return result, nil
		}

		boff := backoff.WithMaxRetries(backoff.NewConstantBackOff(0), 0)
		var full Result
		retryErr := backoff.Retry(func() error {
			var fullErr error
			full, fullErr = e.runFull(ctx)
			return fullErr
		}, boff)
		if retryErr != nil {
			return Result{}, fmt.Errorf("incremental reconcile failed (%v), full rebuild also failed: %w", err, retryErr)
		}
		return full, e.recordHead(ctx, head)
	}

	full, err := e.runFull(ctx)
	if err != nil {
		return Result{}, err
	}
	return full, e.recordHead(ctx, head)
}

const rootMarkerKey = "__reconcile_last_head__"

func (e *Engine) recordHead(ctx context.Context, head string) error {
	return e.Index.UpsertDirectoryRoot(ctx, rootMarkerKey, head, "", 0)
}

// runIncremental reindexes exactly the dirty markdown paths.
func (e *Engine) runIncremental(ctx context.Context, dirty []string) (Result, error) {
	reindexed := 0
	for _, rel := range dirty {
		full := filepath.Join(e.Root, rel)
		if err := e.indexOnePath(ctx, rel, full); err != nil {
			return Result{}, fmt.Errorf("reindex %s: %w", rel, err)
		}
		reindexed++
	}
	return Result{Tier: Incremental, Reindexed: reindexed}, nil
}

// runFull walks the entire repository, reindexing every markdown file and
// deleting index rows for paths no longer present on disk.
func (e *Engine) runFull(ctx context.Context) (Result, error) {
	found := map[string]bool{}
	reindexed := 0

	walkErr := filepath.WalkDir(e.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".lattice":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		rel, err := filepath.Rel(e.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		found[rel] = true
		if err := e.indexOnePath(ctx, rel, path); err != nil {
			return fmt.Errorf("index %s: %w", rel, err)
		}
		reindexed++
		return nil
	})
	if walkErr != nil {
		return Result{}, fmt.Errorf("walk repository: %w", walkErr)
	}

	existing, err := e.Index.AllPaths(ctx)
	if err != nil {
		return Result{}, err
	}
	removed := 0
	for _, p := range existing {
		if !found[p] {
			if err := e.Index.DeleteByPathPrefix(ctx, p); err != nil {
				return Result{}, err
			}
			removed++
		}
	}

	if removed > 0 {
		if err := e.Index.DeleteOrphanedLabels(ctx); err != nil {
			return Result{}, err
		}
	}

	return Result{Tier: Full, Reindexed: reindexed, Removed: removed}, nil
}

// IndexFile reads one document off disk (relPath relative to root) and
// upserts its row, links, and search content. Exported so the command layer
// can reindex a single document immediately after create/update/close
// instead of waiting for the next reconciliation pass.
func IndexFile(ctx context.Context, idx *index.Store, root, relPath string) error {
	e := &Engine{Root: root, Index: idx}
	return e.indexOnePath(ctx, relPath, filepath.Join(root, relPath))
}

// indexOnePath reads one document off disk and upserts its row, links, and
// search content.
func (e *Engine) indexOnePath(ctx context.Context, relPath, fullPath string) error {
	doc, err := document.Read(fullPath)
	if err != nil {
		return err
	}
	doc.Path = relPath
	doc.IsClosed = document.DeriveClosed(relPath)
	doc.IsRoot = document.DeriveRoot(relPath)
	doc.InTasksDir = document.DeriveInTasksDir(relPath)
	doc.InDocsDir = document.DeriveInDocsDir(relPath)

	row := index.DocumentRow{
		ID:            doc.Frontmatter.ID,
		ParentID:      doc.Frontmatter.ParentID,
		Path:          relPath,
		Name:          doc.Frontmatter.Name,
		Description:   doc.Frontmatter.Description,
		TaskType:      string(doc.Frontmatter.TaskType),
		IsClosed:      doc.IsClosed,
		Priority:      doc.Frontmatter.Priority,
		CreatedAt:     doc.Frontmatter.CreatedAt,
		UpdatedAt:     doc.Frontmatter.UpdatedAt,
		ClosedAt:      doc.Frontmatter.ClosedAt,
		BodyHash:      doc.BodyHash(),
		ContentLength: doc.ContentLength(),
		IsRoot:        doc.IsRoot,
		InTasksDir:    doc.InTasksDir,
		InDocsDir:     doc.InDocsDir,
		Skill:         doc.Frontmatter.Skill,
	}

	exists, err := e.Index.Exists(ctx, row.ID)
	if err != nil {
		return err
	}
	if exists {
		updated := index.DocumentUpdate{
			Path: &row.Path, Name: &row.Name, Description: &row.Description,
			IsClosed: &row.IsClosed, BodyHash: &row.BodyHash, ContentLength: &row.ContentLength,
			IsRoot: &row.IsRoot, InTasksDir: &row.InTasksDir, InDocsDir: &row.InDocsDir,
		}
		if _, err := e.Index.Update(ctx, row.ID, updated); err != nil {
			return err
		}
	} else {
		if err := e.Index.Insert(ctx, row); err != nil {
			return err
		}
	}

	if err := e.Index.IndexContent(ctx, row.ID, row.Description, doc.Body); err != nil {
		return err
	}

	if err := e.Index.ReplaceLabels(ctx, row.ID, doc.Frontmatter.Labels); err != nil {
		return err
	}

	return e.reindexLinks(ctx, row.ID, doc)
}

func (e *Engine) reindexLinks(ctx context.Context, sourceID string, doc *document.Document) error {
	var links []index.LinkRow
	pos := 0
	for _, l := range linkextract.Extract(doc.Body) {
		if l.FragmentID == "" {
			continue
		}
		links = append(links, index.LinkRow{SourceID: sourceID, TargetID: l.FragmentID, Type: index.LinkBody, Position: pos})
		pos++
	}
	for i, id := range doc.Frontmatter.Blocking {
		links = append(links, index.LinkRow{SourceID: sourceID, TargetID: id, Type: index.LinkBlocking, Position: i})
	}
	for i, id := range doc.Frontmatter.BlockedBy {
		links = append(links, index.LinkRow{SourceID: sourceID, TargetID: id, Type: index.LinkBlockedBy, Position: i})
	}
	for i, id := range doc.Frontmatter.DiscoveredFrom {
		links = append(links, index.LinkRow{SourceID: sourceID, TargetID: id, Type: index.LinkDiscoveredFrom, Position: i})
	}
	return e.Index.ReplaceSourceLinks(ctx, sourceID, links)
}
