package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeMirrorsBothDirections(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", Blocking)
	assert.Equal(t, []string{"B"}, g.GetBlocking("A"))
	assert.Equal(t, []string{"A"}, g.GetBlockers("B"))
}

func TestAddEdgeBlockedByDirection(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", BlockedBy)
	assert.Equal(t, []string{"B"}, g.GetBlockers("A"))
	assert.Equal(t, []string{"A"}, g.GetBlocking("B"))
}

func TestDetectCycleNone(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", Blocking)
	g.AddEdge("B", "C", Blocking)
	result := g.DetectCycle()
	assert.False(t, result.HasCycle)
}

func TestDetectCycleSimple(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", Blocking)
	g.AddEdge("B", "A", Blocking)
	result := g.DetectCycle()
	require.True(t, result.HasCycle)
	assert.ElementsMatch(t, []string{"A", "B"}, result.InvolvedIDs)
}

func TestValidateNoCycleOnAddRejectsReverseEdge(t *testing.T) {
	g := New()
	g.AddEdge("LAA002AAA", "LAA001AAA", Blocking) // LAA002 blocks LAA001
	result := ValidateNoCycleOnAdd(g, "LAA001AAA", "LAA002AAA", Blocking)
	require.True(t, result.HasCycle)
	assert.Equal(t, "LAA001AAA → LAA002AAA → LAA001AAA", FormatCyclePath(result.CyclePath))

	// Original graph is untouched.
	assert.False(t, g.DetectCycle().HasCycle)
}

func TestGetAllBlockersTransitive(t *testing.T) {
	g := New()
	g.AddEdge("C", "B", Blocking) // C blocks B
	g.AddEdge("B", "A", Blocking) // B blocks A
	assert.Equal(t, []string{"B", "C"}, g.GetAllBlockers("A"))
}

func TestTopologicalOrderLinearChain(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", Blocking)
	g.AddEdge("B", "C", Blocking)
	order, ok := g.TopologicalOrder([]string{"A"})
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestTopologicalOrderDetectsCycle(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", Blocking)
	g.AddEdge("B", "A", Blocking)
	_, ok := g.TopologicalOrder([]string{"A"})
	assert.False(t, ok)
}

type fakeLookup struct {
	closed map[string]bool
	names  map[string]string
}

func (f fakeLookup) Lookup(id string) (string, bool, bool) {
	name, ok := f.names[id]
	if !ok {
		return "", false, false
	}
	return name, f.closed[id], true
}

func TestBuildDependencyTreeStates(t *testing.T) {
	g := New()
	g.AddEdge("root", "blocker-open", BlockedBy)
	g.AddEdge("root", "blocker-closed", BlockedBy)

	lookup := fakeLookup{
		closed: map[string]bool{"blocker-closed": true},
		names:  map[string]string{"root": "Root", "blocker-open": "Open", "blocker-closed": "Closed"},
	}

	tree := g.BuildDependencyTree(lookup, "root", Upstream, 0)
	assert.Equal(t, StateBlocked, tree.State)
	require.Len(t, tree.Children, 2)
}

func TestBuildDependencyTreeBreaksCycles(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", Blocking)
	g.AddEdge("B", "A", Blocking)

	lookup := fakeLookup{names: map[string]string{"A": "A", "B": "B"}}
	tree := g.BuildDependencyTree(lookup, "A", Downstream, 0)

	// A -> B(leaf): A is already on the path, so B gets no children
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "B", tree.Children[0].ID)
	assert.Empty(t, tree.Children[0].Children)
}
