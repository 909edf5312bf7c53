package cliapp

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lattice-run/lattice/internal/claims"
	"github.com/lattice-run/lattice/internal/document"
	"github.com/lattice-run/lattice/internal/index"
	"github.com/lattice-run/lattice/internal/invariants"
	"github.com/lattice-run/lattice/internal/latticeerr"
	"github.com/lattice-run/lattice/internal/latticeid"
	"github.com/lattice-run/lattice/internal/linkextract"
	"github.com/lattice-run/lattice/internal/ready"
	"github.com/lattice-run/lattice/internal/reconcile"
)

// CreateInput describes a new document.
type CreateInput struct {
	Dir         string // directory the file is created under, relative to repo root
	Name        string
	Description string
	TaskType    document.TaskType
	Priority    *int
	ParentID    string
	Skill       string
	Labels      []string
	Body        string
}

// Create mints a new ID, writes the file, and indexes it.
func (a *App) Create(ctx context.Context, in CreateInput) (*index.DocumentRow, error) {
	if in.Name == "" {
		return nil, &latticeerr.UserInputError{Reason: "name is required"}
	}

	counter, err := a.nextCounter(ctx)
	if err != nil {
		return nil, err
	}
	id, err := latticeid.Mint(a.Config.ClientID, counter)
	if err != nil {
		return nil, fmt.Errorf("mint id: %w", err)
	}

	now := time.Now().UTC()
	fm := document.Frontmatter{
		ID:          id.String(),
		ParentID:    in.ParentID,
		Name:        in.Name,
		Description: in.Description,
		TaskType:    in.TaskType,
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		Skill:       in.Skill,
		Labels:      in.Labels,
	}
	body := in.Body
	if body == "" {
		body = "# " + in.Name + "\n"
	}
	content, err := document.Render(fm, body)
	if err != nil {
		return nil, err
	}

	relPath := filepath.ToSlash(filepath.Join(in.Dir, in.Name+".md"))
	fullPath := filepath.Join(a.Root, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, &latticeerr.WriteError{Path: fullPath, Reason: err}
	}
	if err := document.WriteRaw(fullPath, content); err != nil {
		return nil, err
	}

	if err := reconcile.IndexFile(ctx, a.Index, a.Root, relPath); err != nil {
		return nil, err
	}
	return a.Index.LookupByID(ctx, id.String())
}

// nextCounter reserves the next per-client counter value.
func (a *App) nextCounter(ctx context.Context) (uint64, error) {
	var n uint64
	err := a.Index.WithTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		n, txErr = a.Index.NextCounter(ctx, tx, a.Config.ClientID)
		return txErr
	})
	return n, err
}

// UpdateInput carries the mutable fields of update; nil means "leave as is".
type UpdateInput struct {
	Name        *string
	Description *string
	Priority    **int
	Skill       *string
	Labels      *[]string
}

// Update rewrites id's front-matter and reindexes it.
func (a *App) Update(ctx context.Context, id string, in UpdateInput) (*index.DocumentRow, error) {
	row, err := a.Index.LookupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(a.Root, row.Path)
	doc, err := document.Read(full)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		doc.Frontmatter.Name = *in.Name
	}
	if in.Description != nil {
		doc.Frontmatter.Description = *in.Description
	}
	if in.Priority != nil {
		doc.Frontmatter.Priority = *in.Priority
	}
	if in.Skill != nil {
		doc.Frontmatter.Skill = *in.Skill
	}
	if in.Labels != nil {
		doc.Frontmatter.Labels = *in.Labels
	}
	if err := document.UpdateFrontmatter(full, doc.Frontmatter, document.WriteOptions{WithTimestamp: true}); err != nil {
		return nil, err
	}
	if err := reconcile.IndexFile(ctx, a.Index, a.Root, row.Path); err != nil {
		return nil, err
	}
	return a.Index.LookupByID(ctx, id)
}

// Close moves a task document into its module's tasks/.closed/ directory and
// reindexes it, per spec §3.1 invariant 3 (closedness is path-derived).
func (a *App) Close(ctx context.Context, id string) (*index.DocumentRow, error) {
	row, err := a.Index.LookupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.IsClosed {
		return row, nil
	}

	dir, base := filepath.Split(row.Path)
	closedDir := filepath.Join(dir, ".closed")
	newRel := filepath.ToSlash(filepath.Join(closedDir, base))
	oldFull := filepath.Join(a.Root, row.Path)
	newFull := filepath.Join(a.Root, newRel)

	if err := os.MkdirAll(filepath.Join(a.Root, closedDir), 0o755); err != nil {
		return nil, &latticeerr.WriteError{Path: newFull, Reason: err}
	}

	doc, err := document.Read(oldFull)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc.Frontmatter.ClosedAt = &now
	doc.Frontmatter.UpdatedAt = now
	content, err := document.Render(doc.Frontmatter, doc.Body)
	if err != nil {
		return nil, err
	}
	if err := document.WriteRaw(newFull, content); err != nil {
		return nil, err
	}
	if err := os.Remove(oldFull); err != nil {
		return nil, &latticeerr.WriteError{Path: oldFull, Reason: err}
	}

	if err := a.Index.DeleteByID(ctx, id); err != nil {
		return nil, err
	}
	if err := reconcile.IndexFile(ctx, a.Index, a.Root, newRel); err != nil {
		return nil, err
	}
	return a.Index.LookupByID(ctx, id)
}

// Show fetches a single document row.
func (a *App) Show(ctx context.Context, id string) (*index.DocumentRow, error) {
	return a.Index.LookupByID(ctx, id)
}

// List runs a filtered document query.
func (a *App) List(ctx context.Context, filter index.DocumentFilter) ([]index.DocumentRow, error) {
	return a.Index.Query(ctx, filter)
}

// Ready runs the ready-work calculator.
func (a *App) Ready(ctx context.Context, opts ready.Options) ([]index.DocumentRow, error) {
	return ready.Query(ctx, a.Index, a.Claims, opts)
}

// Search runs a full-text search query.
func (a *App) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	return a.Index.Search(ctx, query, limit)
}

// Blocked returns open task documents with at least one open blocker, the
// inverse of the ready calculator's default filter.
func (a *App) Blocked(ctx context.Context) ([]index.DocumentRow, error) {
	candidates, err := a.Index.Query(ctx, index.DocumentFilter{State: index.StateOpen})
	if err != nil {
		return nil, err
	}
	var blocked []index.DocumentRow
	for _, row := range candidates {
		if row.TaskType == "" {
			continue
		}
		has, err := a.hasOpenBlocker(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		if has {
			blocked = append(blocked, row)
		}
	}
	return blocked, nil
}

func (a *App) hasOpenBlocker(ctx context.Context, id string) (bool, error) {
	links, err := a.Index.QueryOutgoingByType(ctx, id, index.LinkBlockedBy)
	if err != nil {
		return false, err
	}
	for _, l := range links {
		target, err := a.Index.LookupByID(ctx, l.TargetID)
		if err != nil {
			continue
		}
		if !target.IsClosed {
			return true, nil
		}
	}
	return false, nil
}

// StaleClaim pairs a claim with its formatted age for reporting.
type StaleClaim struct {
	Claim *claims.Claim
	Age   string
}

// Stale lists claims older than the configured staleness threshold, or
// whose task or worktree no longer exists.
func (a *App) Stale(ctx context.Context) ([]StaleClaim, error) {
	all, err := a.Claims.All()
	if err != nil {
		return nil, err
	}
	check := a.staleCheck(ctx)
	var stale []StaleClaim
	for _, c := range all {
		if c.IsStale(check) {
			stale = append(stale, StaleClaim{Claim: c, Age: claims.FormatStaleAge(c)})
		}
	}
	return stale, nil
}

func (a *App) staleCheck(ctx context.Context) claims.StaleCheck {
	after := 7 * 24 * time.Hour
	if a.Config.ClaimStaleAfter != "" {
		if d, err := time.ParseDuration(a.Config.ClaimStaleAfter); err == nil {
			after = d
		}
	}
	return claims.StaleCheck{
		StaleAfter: after,
		TaskExists: func(id string) bool {
			exists, err := a.Index.Exists(ctx, id)
			return err == nil && exists
		},
		TaskIsClosed: func(id string) bool {
			row, err := a.Index.LookupByID(ctx, id)
			return err == nil && row.IsClosed
		},
		WorktreeExists: func(path string) bool {
			if path == "" {
				return true
			}
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// Claim claims a task for claimedBy in worktree.
func (a *App) Claim(taskID, claimedBy, worktree string) (*claims.Claim, error) {
	return a.Claims.Claim(taskID, claimedBy, worktree)
}

// Release releases a claim, idempotently.
func (a *App) Release(taskID string) error {
	return a.Claims.Release(taskID)
}

// Track records a discovered-from edge: child was discovered while working
// on parent.
func (a *App) Track(ctx context.Context, childID, parentID string) error {
	child, err := a.Index.LookupByID(ctx, childID)
	if err != nil {
		return err
	}
	if _, err := a.Index.LookupByID(ctx, parentID); err != nil {
		return err
	}
	full := filepath.Join(a.Root, child.Path)
	doc, err := document.Read(full)
	if err != nil {
		return err
	}
	doc.Frontmatter.DiscoveredFrom = appendUniqueStr(doc.Frontmatter.DiscoveredFrom, parentID)
	if err := document.UpdateFrontmatter(full, doc.Frontmatter, document.WriteOptions{WithTimestamp: true}); err != nil {
		return err
	}
	return reconcile.IndexFile(ctx, a.Index, a.Root, child.Path)
}

// GenerateIDs mints n fresh Lattice IDs without creating documents, useful
// for pre-allocating identifiers in external tooling.
func (a *App) GenerateIDs(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		counter, err := a.nextCounter(ctx)
		if err != nil {
			return nil, err
		}
		id, err := latticeid.Mint(a.Config.ClientID, counter)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id.String())
	}
	return ids, nil
}

// Stats summarizes index counts.
type Stats struct {
	OpenTasks   int
	ClosedTasks int
	TotalDocs   int
	ReadyCount  int
	BlockedCount int
	StaleClaims int
}

// Stats computes summary counters across the index.
func (a *App) Stats(ctx context.Context) (*Stats, error) {
	openCount, err := a.Index.Count(ctx, index.DocumentFilter{State: index.StateOpen, TaskType: "task"})
	if err != nil {
		return nil, err
	}
	closedCount, err := a.Index.Count(ctx, index.DocumentFilter{State: index.StateClosed, TaskType: "task"})
	if err != nil {
		return nil, err
	}
	total, err := a.Index.Count(ctx, index.DocumentFilter{State: index.StateAny, IncludeClosed: true})
	if err != nil {
		return nil, err
	}
	readyRows, err := a.Ready(ctx, ready.Options{})
	if err != nil {
		return nil, err
	}
	blockedRows, err := a.Blocked(ctx)
	if err != nil {
		return nil, err
	}
	stale, err := a.Stale(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		OpenTasks:    openCount,
		ClosedTasks:  closedCount,
		TotalDocs:    total,
		ReadyCount:   len(readyRows),
		BlockedCount: len(blockedRows),
		StaleClaims:  len(stale),
	}, nil
}

// Overview is a minimal one-shot summary of ready work, stale claims, and
// index health, per DESIGN.md's open-question decision that overview gets a
// real (if minimal) implementation.
type Overview struct {
	Stats     *Stats
	Violation *invariants.Violation
}

// Overview gathers Stats and runs a quick invariants pass.
func (a *App) Overview(ctx context.Context) (*Overview, error) {
	stats, err := a.Stats(ctx)
	if err != nil {
		return nil, err
	}
	checker := invariants.New(a.Index, &fsReader{root: a.Root}, a.Git)
	violation, err := checker.CheckAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{Stats: stats, Violation: violation}, nil
}

// Doctor is an alias for Overview's invariants pass with the addition of a
// reconciliation run first, per DESIGN.md's open-question decision.
func (a *App) Doctor(ctx context.Context) (*Overview, error) {
	if _, err := a.Reconcile(ctx); err != nil {
		return nil, err
	}
	return a.Overview(ctx)
}

// PruneResult reports the outcome of Prune.
type PruneResult struct {
	Removed []string
	Skipped []string
}

// Prune deletes closed task documents that are not referenced by any
// in-body link from an open document. With force, inline links referencing
// the pruned document are rewritten to plain text (spec §8 scenario 6).
func (a *App) Prune(ctx context.Context, all, force bool) (*PruneResult, error) {
	candidates, err := a.Index.Query(ctx, index.DocumentFilter{State: index.StateClosed, TaskType: "task", SortBy: index.SortByCreatedAt})
	if err != nil {
		return nil, err
	}
	if !all && len(candidates) > 1 {
		candidates = candidates[:1]
	}

	result := &PruneResult{}
	for _, row := range candidates {
		referencingDocs, err := a.findInlineReferences(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		if len(referencingDocs) > 0 && !force {
			result.Skipped = append(result.Skipped, row.ID)
			continue
		}
		if force {
			for _, refPath := range referencingDocs {
				if err := a.stripInlineLink(refPath, row.ID, row.Name); err != nil {
					return nil, err
				}
			}
		}
		full := filepath.Join(a.Root, row.Path)
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return nil, &latticeerr.WriteError{Path: full, Reason: err}
		}
		if err := a.Index.DeleteByID(ctx, row.ID); err != nil {
			return nil, err
		}
		result.Removed = append(result.Removed, row.ID)
	}
	return result, nil
}

func (a *App) findInlineReferences(ctx context.Context, targetID string) ([]string, error) {
	ids, err := a.Index.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, id := range ids {
		if id == targetID {
			continue
		}
		row, err := a.Index.LookupByID(ctx, id)
		if err != nil {
			continue
		}
		if row.IsClosed {
			continue
		}
		full := filepath.Join(a.Root, row.Path)
		body, err := os.ReadFile(full) // #nosec G304 - path from our own index
		if err != nil {
			continue
		}
		for _, l := range linkextract.Extract(string(body)) {
			if l.FragmentID == targetID {
				paths = append(paths, row.Path)
				break
			}
		}
	}
	return paths, nil
}

func (a *App) stripInlineLink(relPath, targetID, targetName string) error {
	full := filepath.Join(a.Root, relPath)
	raw, err := os.ReadFile(full) // #nosec G304
	if err != nil {
		return &latticeerr.ReadError{Path: full, Reason: err}
	}
	body := string(raw)
	for _, l := range linkextract.Extract(body) {
		if l.FragmentID == targetID {
			body = strings.Replace(body, l.Raw, targetName, 1)
		}
	}
	return document.WriteRaw(full, body)
}

func appendUniqueStr(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// fsReader adapts the filesystem to invariants.FSReader for App.Overview.
type fsReader struct {
	root string
}

func (f *fsReader) ReadFrontmatterID(path string) (string, bool, error) {
	doc, err := document.Read(filepath.Join(f.root, path))
	if err != nil {
		return "", false, err
	}
	return doc.Frontmatter.ID, true, nil
}

func (f *fsReader) ReadBody(path string) (string, error) {
	doc, err := document.Read(filepath.Join(f.root, path))
	if err != nil {
		return "", err
	}
	return doc.Body, nil
}

func (f *fsReader) Walk() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(f.root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".lattice" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	return paths, err
}
