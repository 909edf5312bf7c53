// Package invariants runs the chaos invariants checker (spec §4.10): one
// function per cross-representation consistency property from spec §8,
// executed in a fixed sequence after mutating operations or on doctor
// invocation. The first failure stops the sequence, mirroring the
// check_all/check_link_path_validity shape of the Rust original this was
// distilled from.
package invariants

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/lattice-run/lattice/internal/document"
	"github.com/lattice-run/lattice/internal/gitops"
	"github.com/lattice-run/lattice/internal/index"
	"github.com/lattice-run/lattice/internal/latticeid"
	"github.com/lattice-run/lattice/internal/linkextract"
)

// Kind names which invariant failed.
type Kind string

const (
	IndexHasOrphanedID          Kind = "IndexHasOrphanedId"
	FilesystemHasUnindexedDoc   Kind = "FilesystemHasUnindexedDocument"
	DuplicateID                 Kind = "DuplicateId"
	MalformedIDInIndex          Kind = "MalformedIdInIndex"
	ClosedStateInconsistency    Kind = "ClosedStateInconsistency"
	RootStateInconsistency      Kind = "RootStateInconsistency"
	GitOperationFailed          Kind = "GitOperationFailed"
	LinkPathMismatch            Kind = "LinkPathMismatch"
	Panic                       Kind = "Panic"
)

// Violation is the typed result of a failed check.
type Violation struct {
	Invariant      Kind
	Description    string
	AffectedPaths  []string
	AffectedIDs    []string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Invariant, v.Description)
}

// FSReader abstracts reading an indexed document's current on-disk
// front-matter ID, so the checker does not depend on a live filesystem in
// tests.
type FSReader interface {
	ReadFrontmatterID(path string) (id string, ok bool, err error)
	ReadBody(path string) (string, error)
	Walk() ([]string, error) // every markdown path under the repo root
}

// Checker runs the fixed sequence against one index snapshot.
type Checker struct {
	idx *index.Store
	fs  FSReader
	git gitops.GitOps
}

// New constructs a Checker.
func New(idx *index.Store, fs FSReader, git gitops.GitOps) *Checker {
	return &Checker{idx: idx, fs: fs, git: git}
}

// CheckAll runs every invariant in the fixed spec §4.10 order, returning the
// first violation encountered, or nil if all pass.
func (c *Checker) CheckAll(ctx context.Context) (violation *Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			violation = &Violation{Invariant: Panic, Description: fmt.Sprintf("%v", r)}
		}
	}()

	checks := []func(context.Context) (*Violation, error){
		c.checkIndexHasOrphanedID,
		c.checkFilesystemHasUnindexedDocument,
		c.checkDuplicateID,
		c.checkMalformedIDInIndex,
		c.checkClosedStateInconsistency,
		c.checkRootStateInconsistency,
		c.checkGitOperationFailed,
		c.checkLinkPathMismatch,
	}

	for _, check := range checks {
		v, err := check(ctx)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}

// checkIndexHasOrphanedID verifies every indexed document's path still
// exists on disk with a matching front-matter ID.
func (c *Checker) checkIndexHasOrphanedID(ctx context.Context) (*Violation, error) {
	ids, err := c.idx.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		row, err := c.idx.LookupByID(ctx, id)
		if err != nil {
			continue
		}
		fsID, ok, err := c.fs.ReadFrontmatterID(row.Path)
		if err != nil {
			return nil, err
		}
		if !ok || fsID != id {
			return &Violation{
				Invariant:     IndexHasOrphanedID,
				Description:   fmt.Sprintf("indexed document %s has no matching on-disk file at %s", id, row.Path),
				AffectedPaths: []string{row.Path},
				AffectedIDs:   []string{id},
			}, nil
		}
	}
	return nil, nil
}

// checkFilesystemHasUnindexedDocument verifies every markdown file under the
// repo has a matching indexed document with the file's front-matter ID.
func (c *Checker) checkFilesystemHasUnindexedDocument(ctx context.Context) (*Violation, error) {
	paths, err := c.fs.Walk()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		fsID, ok, err := c.fs.ReadFrontmatterID(p)
		if err != nil || !ok {
			continue
		}
		row, err := c.idx.LookupByPath(ctx, p)
		if err != nil || row.ID != fsID {
			return &Violation{
				Invariant:     FilesystemHasUnindexedDoc,
				Description:   fmt.Sprintf("%s (id %s) is not indexed", p, fsID),
				AffectedPaths: []string{p},
				AffectedIDs:   []string{fsID},
			}, nil
		}
	}
	return nil, nil
}

// checkDuplicateID verifies no two indexed documents share an ID; relies on
// the index's primary key, so a violation here implies the underlying
// SQLite uniqueness constraint was itself bypassed (e.g. by direct row
// manipulation in a test double).
func (c *Checker) checkDuplicateID(ctx context.Context) (*Violation, error) {
	ids, err := c.idx.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			return &Violation{Invariant: DuplicateID, Description: "duplicate id " + id, AffectedIDs: []string{id}}, nil
		}
		seen[id] = true
	}
	return nil, nil
}

// checkMalformedIDInIndex verifies every indexed ID parses under the
// Lattice ID grammar.
func (c *Checker) checkMalformedIDInIndex(ctx context.Context) (*Violation, error) {
	ids, err := c.idx.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, err := latticeid.Parse(id); err != nil {
			return &Violation{Invariant: MalformedIDInIndex, Description: "malformed id " + id, AffectedIDs: []string{id}}, nil
		}
	}
	return nil, nil
}

// checkClosedStateInconsistency verifies is_closed agrees with the
// /.closed/ path predicate for every indexed document.
func (c *Checker) checkClosedStateInconsistency(ctx context.Context) (*Violation, error) {
	rows, err := c.idx.Query(ctx, index.DocumentFilter{IncludeClosed: true})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.IsClosed != document.DeriveClosed(row.Path) {
			return &Violation{
				Invariant:     ClosedStateInconsistency,
				Description:   fmt.Sprintf("%s: is_closed=%v disagrees with path %s", row.ID, row.IsClosed, row.Path),
				AffectedPaths: []string{row.Path},
				AffectedIDs:   []string{row.ID},
			}, nil
		}
	}
	return nil, nil
}

// checkRootStateInconsistency verifies is_root agrees with the root-document
// predicate for every indexed document.
func (c *Checker) checkRootStateInconsistency(ctx context.Context) (*Violation, error) {
	rows, err := c.idx.Query(ctx, index.DocumentFilter{IncludeClosed: true})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.IsRoot != document.DeriveRoot(row.Path) {
			return &Violation{
				Invariant:     RootStateInconsistency,
				Description:   fmt.Sprintf("%s: is_root=%v disagrees with path %s", row.ID, row.IsRoot, row.Path),
				AffectedPaths: []string{row.Path},
				AffectedIDs:   []string{row.ID},
			}, nil
		}
	}
	return nil, nil
}

// checkGitOperationFailed is a liveness check: git must still answer
// status() inside a work tree.
func (c *Checker) checkGitOperationFailed(ctx context.Context) (*Violation, error) {
	if c.git == nil {
		return nil, nil
	}
	if _, err := c.git.Status(ctx); err != nil {
		return &Violation{Invariant: GitOperationFailed, Description: err.Error()}, nil
	}
	return nil, nil
}

// checkLinkPathMismatch verifies that for every inline link whose target ID
// is indexed, the link's relative path resolves to that target's current
// path. Links whose target ID is not indexed are permitted to mismatch
// (spec §8, the "links whose target ID resolves... links whose target ID
// is not in the index are permitted" leniency).
func (c *Checker) checkLinkPathMismatch(ctx context.Context) (*Violation, error) {
	ids, err := c.idx.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, sourceID := range ids {
		source, err := c.idx.LookupByID(ctx, sourceID)
		if err != nil {
			continue
		}
		body, err := c.fs.ReadBody(source.Path)
		if err != nil {
			continue
		}
		sourceDir := path.Dir(source.Path)
		for _, link := range linkextract.Extract(body) {
			if link.Kind != linkextract.Canonical {
				continue
			}
			target, err := c.idx.LookupByID(ctx, link.FragmentID)
			if err != nil {
				continue // unindexed target: mismatch permitted
			}
			resolved := strings.TrimPrefix(path.Join(sourceDir, link.Path), "/")
			if resolved != target.Path {
				return &Violation{
					Invariant:     LinkPathMismatch,
					Description:   fmt.Sprintf("%s links to %s at %q but current path is %q", sourceID, link.FragmentID, link.Path, target.Path),
					AffectedPaths: []string{source.Path, target.Path},
					AffectedIDs:   []string{sourceID, link.FragmentID},
				}, nil
			}
		}
	}
	return nil, nil
}
