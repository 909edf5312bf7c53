package depgraph

import (
	"fmt"
	"strings"
)

// NodeState is the computed state of a node within a rendered dependency
// tree (spec §4.6).
type NodeState string

const (
	StateOpen    NodeState = "open"
	StateBlocked NodeState = "blocked"
	StateClosed  NodeState = "closed"
)

// Direction selects which side of the graph a tree walks.
type Direction int

const (
	Upstream Direction = iota // blocked_by
	Downstream                // blocks
)

// DocLookup resolves a document's display name and closed state; supplied
// by the caller so this package stays independent of the index store.
type DocLookup interface {
	// Lookup returns (name, isClosed, found).
	Lookup(id string) (name string, isClosed bool, found bool)
}

// TreeNode is one node of a rendered dependency tree.
type TreeNode struct {
	ID       string
	Name     string
	State    NodeState
	Children []*TreeNode
}

// BuildDependencyTree recursively builds a tree rooted at root, following
// direction, down to maxDepth (0 = unbounded). Cycles are broken by
// refusing to re-enter nodes already visited on the current path.
func (g *Graph) BuildDependencyTree(lookup DocLookup, root string, direction Direction, maxDepth int) *TreeNode {
	visited := map[string]bool{}
	return g.buildNode(lookup, root, direction, maxDepth, 0, visited)
}

func (g *Graph) buildNode(lookup DocLookup, id string, direction Direction, maxDepth, depth int, visited map[string]bool) *TreeNode {
	name, isClosed, found := lookup.Lookup(id)
	if !found {
		name = id
	}

	node := &TreeNode{ID: id, Name: name, State: g.computeState(lookup, id, isClosed)}

	if visited[id] {
		return node
	}
	visited[id] = true
	defer delete(visited, id)

	if maxDepth > 0 && depth >= maxDepth {
		return node
	}

	var neighbors []string
	if direction == Upstream {
		neighbors = g.GetBlockers(id)
	} else {
		neighbors = g.GetBlocking(id)
	}

	for _, next := range neighbors {
		if visited[next] {
			continue
		}
		node.Children = append(node.Children, g.buildNode(lookup, next, direction, maxDepth, depth+1, visited))
	}
	return node
}

// computeState: closed if the document is closed; else blocked if any
// direct blocker is not closed; else open.
func (g *Graph) computeState(lookup DocLookup, id string, isClosed bool) NodeState {
	if isClosed {
		return StateClosed
	}
	for _, blocker := range g.GetBlockers(id) {
		_, blockerClosed, found := lookup.Lookup(blocker)
		if found && !blockerClosed {
			return StateBlocked
		}
		if !found {
			// Spec §4.8: a blocker no longer indexed does not contribute to
			// blockedness.
			continue
		}
	}
	return StateOpen
}

// TreeRenderer renders a tree with box-drawing connectors, grounded on the
// teacher's CLI tree-rendering convention.
type TreeRenderer struct {
	maxDepth int
}

// NewTreeRenderer builds a renderer; maxDepth of 0 means unbounded.
func NewTreeRenderer(maxDepth int) *TreeRenderer {
	return &TreeRenderer{maxDepth: maxDepth}
}

// Render returns the tree as indented text with │/├──/└── connectors.
func (r *TreeRenderer) Render(root *TreeNode) string {
	var sb strings.Builder
	r.renderNode(&sb, root, "", true, 0)
	return sb.String()
}

func (r *TreeRenderer) renderNode(sb *strings.Builder, node *TreeNode, prefix string, isRoot bool, depth int) {
	if isRoot {
		fmt.Fprintf(sb, "%s [%s]\n", node.Name, node.State)
	}
	if r.maxDepth > 0 && depth >= r.maxDepth {
		return
	}
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		fmt.Fprintf(sb, "%s%s%s [%s]\n", prefix, connector, child.Name, child.State)
		r.renderNode(sb, child, childPrefix, false, depth+1)
	}
}

// ValidateNoCycleOnAdd builds the graph, applies the hypothetical edge, and
// reports whether it would introduce a cycle (spec §4.6). The caller is
// responsible for constructing g from the current index state and for not
// persisting the edge when this returns a cycle.
func ValidateNoCycleOnAdd(g *Graph, source, target string, kind EdgeKind) CycleResult {
	trial := g.clone()
	trial.AddEdge(source, target, kind)
	return trial.DetectCycle()
}

func (g *Graph) clone() *Graph {
	out := New()
	for id, n := range g.edges {
		clone := newNodeEdges()
		for k := range n.blocks {
			clone.blocks[k] = true
		}
		for k := range n.blockedBy {
			clone.blockedBy[k] = true
		}
		out.edges[id] = clone
	}
	return out
}
