// Package ready computes the set of actionable tasks per spec §4.8: a task
// is ready when it is open, is a task-type document, and has no open
// blocker. Ordering and claim/backlog filtering follow the teacher's
// ready-work query shape adapted onto the lattice index schema.
package ready

import (
	"context"
	"sort"

	"github.com/lattice-run/lattice/internal/index"
)

// SortPolicy selects how Query orders its results.
type SortPolicy int

const (
	// Hybrid orders by priority, then oldest-first, matching the teacher's
	// default ready-work ordering.
	Hybrid SortPolicy = iota
	Priority
	Oldest
)

// Options configures Query (spec §4.8).
type Options struct {
	IncludeClaimed bool
	IncludeBacklog bool
	SortPolicy     SortPolicy
	Limit          int
	PathPrefix     string
}

// ClaimChecker reports whether a document is currently claimed, used to
// implement the claimed-task exclusion without coupling this package to the
// claims package's file-lock internals.
type ClaimChecker interface {
	IsClaimed(documentID string) bool
}

const backlogPriority = 4

// Query returns every ready task: open, task-typed, with no open blocker,
// subject to claim and backlog filtering (spec §4.8).
func Query(ctx context.Context, idx *index.Store, claims ClaimChecker, opts Options) ([]index.DocumentRow, error) {
	candidates, err := idx.Query(ctx, index.DocumentFilter{
		State:      index.StateOpen,
		PathPrefix: opts.PathPrefix,
	})
	if err != nil {
		return nil, err
	}

	var ready []index.DocumentRow
	for _, c := range candidates {
		if c.TaskType == "" {
			continue
		}
		if !opts.IncludeBacklog && c.Priority != nil && *c.Priority == backlogPriority {
			continue
		}
		if !opts.IncludeClaimed && claims != nil && claims.IsClaimed(c.ID) {
			continue
		}

		blocked, err := hasOpenBlocker(ctx, idx, c.ID)
		if err != nil {
			return nil, err
		}
		if blocked {
			continue
		}
		ready = append(ready, c)
	}

	order(ready, opts.SortPolicy)
	if opts.Limit > 0 && len(ready) > opts.Limit {
		ready = ready[:opts.Limit]
	}
	return ready, nil
}

// Count returns how many rows Query returns for opts, ignoring SortPolicy
// and Limit; it runs Query itself rather than a separate count query.
func Count(ctx context.Context, idx *index.Store, claims ClaimChecker, opts Options) (int, error) {
	rows, err := Query(ctx, idx, claims, Options{
		IncludeClaimed: opts.IncludeClaimed,
		IncludeBacklog: opts.IncludeBacklog,
		PathPrefix:     opts.PathPrefix,
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// hasOpenBlocker reports whether id has at least one indexed blocker that is
// not closed. A blocker link to an ID the index does not know about is
// ignored (spec §4.8: unresolved blockers never permanently block readiness).
func hasOpenBlocker(ctx context.Context, idx *index.Store, id string) (bool, error) {
	blockers, err := idx.QueryIncomingByType(ctx, id, index.LinkBlocking)
	if err != nil {
		return false, err
	}
	blockedBy, err := idx.QueryOutgoingByType(ctx, id, index.LinkBlockedBy)
	if err != nil {
		return false, err
	}

	seen := map[string]bool{}
	check := func(blockerID string) (bool, error) {
		if seen[blockerID] {
			return false, nil
		}
		seen[blockerID] = true
		row, err := idx.LookupByID(ctx, blockerID)
		if err != nil {
			return false, nil // unindexed blocker does not block readiness
		}
		return !row.IsClosed, nil
	}

	for _, l := range blockers {
		open, err := check(l.SourceID)
		if err != nil {
			return false, err
		}
		if open {
			return true, nil
		}
	}
	for _, l := range blockedBy {
		open, err := check(l.TargetID)
		if err != nil {
			return false, err
		}
		if open {
			return true, nil
		}
	}
	return false, nil
}

func order(rows []index.DocumentRow, policy SortPolicy) {
	switch policy {
	case Priority:
		sort.SliceStable(rows, func(i, j int) bool { return priorityOf(rows[i]) < priorityOf(rows[j]) })
	case Oldest:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	default: // Hybrid
		sort.SliceStable(rows, func(i, j int) bool {
			pi, pj := priorityOf(rows[i]), priorityOf(rows[j])
			if pi != pj {
				return pi < pj
			}
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
	}
}

func priorityOf(d index.DocumentRow) int {
	if d.Priority == nil {
		return 2
	}
	return *d.Priority
}
