// Package orchestrator sequences the uniform mutate skeleton spec §4.11
// names for every mutating operation: resolve the target(s), validate,
// read the document(s), compute the delta, write the file(s), update the
// index, format the result. dep add/remove/tree are the template this
// package implements directly; create/update/close follow the same shape
// in the CLI layer (internal/cliapp) by calling these primitives.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/lattice-run/lattice/internal/depgraph"
	"github.com/lattice-run/lattice/internal/document"
	"github.com/lattice-run/lattice/internal/index"
	"github.com/lattice-run/lattice/internal/latticeerr"
)

// Orchestrator bundles the index and filesystem access the mutate skeleton
// needs.
type Orchestrator struct {
	Index *index.Store
	Root  string // repository root; document paths are relative to this
}

// New constructs an Orchestrator.
func New(idx *index.Store, root string) *Orchestrator {
	return &Orchestrator{Index: idx, Root: root}
}

// DepAddResult reports the outcome of DepAdd.
type DepAddResult struct {
	AlreadyExisted bool
	Warning        string
}

// DepAdd adds a blocks/blocked-by edge between source and target (source is
// blocked by target): resolve both IDs, build the graph, cycle-check the
// proposed edge, mutate both documents' front-matter, update the index.
//
// Idempotency asymmetry (spec §9, dep_command.rs): an edge that already
// exists in front-matter is a no-op returning success, not an error. Adding
// a dependency on an already-closed target is legal but surprising, so it
// warns rather than failing.
func (o *Orchestrator) DepAdd(ctx context.Context, sourceID, targetID string) (DepAddResult, error) {
	source, err := o.Index.LookupByID(ctx, sourceID)
	if err != nil {
		return DepAddResult{}, err
	}
	target, err := o.Index.LookupByID(ctx, targetID)
	if err != nil {
		return DepAddResult{}, err
	}

	exists, err := o.Index.LinkExists(ctx, sourceID, targetID, index.LinkBlockedBy)
	if err != nil {
		return DepAddResult{}, err
	}
	if exists {
		return DepAddResult{AlreadyExisted: true}, nil
	}

	g, err := o.buildGraph(ctx)
	if err != nil {
		return DepAddResult{}, err
	}
	cycle := depgraph.ValidateNoCycleOnAdd(g, sourceID, targetID, depgraph.BlockedBy)
	if cycle.HasCycle {
		return DepAddResult{}, &latticeerr.CircularDependencyError{
			Cycle:       cycle.CyclePath,
			InvolvedIDs: cycle.InvolvedIDs,
		}
	}

	sourceDoc, err := document.Read(o.fullPath(source.Path))
	if err != nil {
		return DepAddResult{}, err
	}
	targetDoc, err := document.Read(o.fullPath(target.Path))
	if err != nil {
		return DepAddResult{}, err
	}

	sourceDoc.Frontmatter.BlockedBy = appendUnique(sourceDoc.Frontmatter.BlockedBy, targetID)
	targetDoc.Frontmatter.Blocking = appendUnique(targetDoc.Frontmatter.Blocking, sourceID)

	if err := document.UpdateFrontmatter(o.fullPath(source.Path), sourceDoc.Frontmatter, document.WriteOptions{WithTimestamp: true}); err != nil {
		return DepAddResult{}, err
	}
	if err := document.UpdateFrontmatter(o.fullPath(target.Path), targetDoc.Frontmatter, document.WriteOptions{WithTimestamp: true}); err != nil {
		return DepAddResult{}, err
	}

	if err := o.Index.InsertForDocument(ctx, []index.LinkRow{
		{SourceID: sourceID, TargetID: targetID, Type: index.LinkBlockedBy, Position: len(sourceDoc.Frontmatter.BlockedBy) - 1},
	}); err != nil {
		return DepAddResult{}, err
	}
	if err := o.Index.InsertForDocument(ctx, []index.LinkRow{
		{SourceID: targetID, TargetID: sourceID, Type: index.LinkBlocking, Position: len(targetDoc.Frontmatter.Blocking) - 1},
	}); err != nil {
		return DepAddResult{}, err
	}

	result := DepAddResult{}
	if target.IsClosed {
		result.Warning = fmt.Sprintf("target %s is already closed", targetID)
	}
	return result, nil
}

// DepRemove removes a blocks/blocked-by edge. Unlike DepAdd, removing an
// edge that does not exist is a DependencyNotFound error (spec §9's named
// asymmetry), not a no-op.
func (o *Orchestrator) DepRemove(ctx context.Context, sourceID, targetID string) error {
	source, err := o.Index.LookupByID(ctx, sourceID)
	if err != nil {
		return err
	}
	target, err := o.Index.LookupByID(ctx, targetID)
	if err != nil {
		return err
	}

	exists, err := o.Index.LinkExists(ctx, sourceID, targetID, index.LinkBlockedBy)
	if err != nil {
		return err
	}
	if !exists {
		return &latticeerr.DependencyNotFoundError{SourceID: sourceID, TargetID: targetID}
	}

	sourceDoc, err := document.Read(o.fullPath(source.Path))
	if err != nil {
		return err
	}
	targetDoc, err := document.Read(o.fullPath(target.Path))
	if err != nil {
		return err
	}

	sourceDoc.Frontmatter.BlockedBy = removeValue(sourceDoc.Frontmatter.BlockedBy, targetID)
	targetDoc.Frontmatter.Blocking = removeValue(targetDoc.Frontmatter.Blocking, sourceID)

	if err := document.UpdateFrontmatter(o.fullPath(source.Path), sourceDoc.Frontmatter, document.WriteOptions{WithTimestamp: true}); err != nil {
		return err
	}
	if err := document.UpdateFrontmatter(o.fullPath(target.Path), targetDoc.Frontmatter, document.WriteOptions{WithTimestamp: true}); err != nil {
		return err
	}

	if err := o.Index.DeleteBySourceAndTarget(ctx, sourceID, targetID); err != nil {
		return err
	}
	return o.Index.DeleteBySourceAndTarget(ctx, targetID, sourceID)
}

// DepTree renders source's dependency tree in direction, as text using
// depgraph's box-drawing renderer.
func (o *Orchestrator) DepTree(ctx context.Context, rootID string, direction depgraph.Direction, maxDepth int) (string, error) {
	g, err := o.buildGraph(ctx)
	if err != nil {
		return "", err
	}
	lookup := &indexLookup{ctx: ctx, idx: o.Index}
	tree := g.BuildDependencyTree(lookup, rootID, direction, maxDepth)
	return depgraph.NewTreeRenderer(maxDepth).Render(tree), nil
}

// buildGraph materializes the full in-memory graph from every indexed
// blocking/blocked-by link row.
func (o *Orchestrator) buildGraph(ctx context.Context) (*depgraph.Graph, error) {
	ids, err := o.Index.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	g := depgraph.New()
	for _, id := range ids {
		links, err := o.Index.QueryOutgoingByType(ctx, id, index.LinkBlockedBy)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			g.AddEdge(l.SourceID, l.TargetID, depgraph.BlockedBy)
		}
	}
	return g, nil
}

func (o *Orchestrator) fullPath(relPath string) string {
	if o.Root == "" {
		return relPath
	}
	return o.Root + "/" + relPath
}

type indexLookup struct {
	ctx context.Context
	idx *index.Store
}

func (l *indexLookup) Lookup(id string) (string, bool, bool) {
	row, err := l.idx.LookupByID(l.ctx, id)
	if err != nil {
		return "", false, false
	}
	return row.Name, row.IsClosed, true
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func removeValue(list []string, v string) []string {
	out := list[:0]
	for _, existing := range list {
		if existing != v {
			out = append(out, existing)
		}
	}
	return out
}
