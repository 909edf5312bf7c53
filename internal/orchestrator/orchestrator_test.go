package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-run/lattice/internal/depgraph"
	"github.com/lattice-run/lattice/internal/index"
	"github.com/lattice-run/lattice/internal/latticeerr"
)

func writeTestDoc(t *testing.T, root, rel, id string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	now := time.Now().UTC().Format(time.RFC3339)
	content := "---\nid: " + id + "\nname: " + id + "\ndescription: d\ncreated_at: " + now + "\nupdated_at: " + now + "\n---\nbody\n"
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func setupOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()
	idx, err := index.Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	writeTestDoc(t, root, "a.md", "LAA001AAA")
	writeTestDoc(t, root, "b.md", "LAA002AAA")
	now := time.Now().UTC()
	require.NoError(t, idx.Insert(context.Background(), index.DocumentRow{ID: "LAA001AAA", Path: "a.md", Name: "LAA001AAA", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, idx.Insert(context.Background(), index.DocumentRow{ID: "LAA002AAA", Path: "b.md", Name: "LAA002AAA", CreatedAt: now, UpdatedAt: now}))

	return New(idx, root), root
}

func TestDepAddCreatesBidirectionalEdge(t *testing.T) {
	ctx := context.Background()
	o, _ := setupOrchestrator(t)

	result, err := o.DepAdd(ctx, "LAA001AAA", "LAA002AAA")
	require.NoError(t, err)
	assert.False(t, result.AlreadyExisted)

	exists, err := o.Index.LinkExists(ctx, "LAA001AAA", "LAA002AAA", index.LinkBlockedBy)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = o.Index.LinkExists(ctx, "LAA002AAA", "LAA001AAA", index.LinkBlocking)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDepAddIsIdempotentOnExistingEdge(t *testing.T) {
	ctx := context.Background()
	o, _ := setupOrchestrator(t)

	_, err := o.DepAdd(ctx, "LAA001AAA", "LAA002AAA")
	require.NoError(t, err)

	result, err := o.DepAdd(ctx, "LAA001AAA", "LAA002AAA")
	require.NoError(t, err)
	assert.True(t, result.AlreadyExisted)
}

func TestDepAddRejectsCycle(t *testing.T) {
	ctx := context.Background()
	o, _ := setupOrchestrator(t)

	_, err := o.DepAdd(ctx, "LAA002AAA", "LAA001AAA")
	require.NoError(t, err)

	_, err = o.DepAdd(ctx, "LAA001AAA", "LAA002AAA")
	require.Error(t, err)
	var cycleErr *latticeerr.CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
}

func TestDepRemoveErrorsOnMissingEdge(t *testing.T) {
	ctx := context.Background()
	o, _ := setupOrchestrator(t)

	err := o.DepRemove(ctx, "LAA001AAA", "LAA002AAA")
	require.Error(t, err)
	var notFound *latticeerr.DependencyNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDepRemoveDeletesExistingEdge(t *testing.T) {
	ctx := context.Background()
	o, _ := setupOrchestrator(t)

	_, err := o.DepAdd(ctx, "LAA001AAA", "LAA002AAA")
	require.NoError(t, err)
	require.NoError(t, o.DepRemove(ctx, "LAA001AAA", "LAA002AAA"))

	exists, err := o.Index.LinkExists(ctx, "LAA001AAA", "LAA002AAA", index.LinkBlockedBy)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDepTreeRendersText(t *testing.T) {
	ctx := context.Background()
	o, _ := setupOrchestrator(t)

	_, err := o.DepAdd(ctx, "LAA001AAA", "LAA002AAA")
	require.NoError(t, err)

	text, err := o.DepTree(ctx, "LAA001AAA", depgraph.Upstream, 0)
	require.NoError(t, err)
	assert.Contains(t, text, "LAA002AAA")
}
