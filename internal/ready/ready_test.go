package ready

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lattice-run/lattice/internal/index"
)

type fakeClaims struct{ claimed map[string]bool }

func (f fakeClaims) IsClaimed(id string) bool { return f.claimed[id] }

func openTestIndex(t *testing.T) *index.Store {
	t.Helper()
	s, err := index.Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insertTask(t *testing.T, idx *index.Store, id string, priority int, closed bool) {
	t.Helper()
	now := time.Now().UTC()
	p := priority
	require.NoError(t, idx.Insert(context.Background(), index.DocumentRow{
		ID: id, Path: id + ".md", Name: id, TaskType: "task",
		Priority: &p, IsClosed: closed, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestQueryExcludesClosedAndNonTasks(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	insertTask(t, idx, "LAA001AAA", 2, false)
	insertTask(t, idx, "LAA002AAA", 2, true)
	require.NoError(t, idx.Insert(ctx, index.DocumentRow{
		ID: "LAA003AAA", Path: "doc.md", Name: "doc",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}))

	rows, err := Query(ctx, idx, nil, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "LAA001AAA", rows[0].ID)
}

func TestQueryExcludesBlockedByOpenBlocker(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	insertTask(t, idx, "LAA001AAA", 2, false)
	insertTask(t, idx, "LAA002AAA", 2, false)
	require.NoError(t, idx.InsertForDocument(ctx, []index.LinkRow{
		{SourceID: "LAA001AAA", TargetID: "LAA002AAA", Type: index.LinkBlockedBy, Position: 0},
	}))

	rows, err := Query(ctx, idx, nil, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "LAA002AAA", rows[0].ID)
}

func TestQueryExcludesBacklogByDefault(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	insertTask(t, idx, "LAA001AAA", 4, false)

	rows, err := Query(ctx, idx, nil, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 0)

	rows, err = Query(ctx, idx, nil, Options{IncludeBacklog: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestQueryExcludesClaimedUnlessIncluded(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	insertTask(t, idx, "LAA001AAA", 2, false)
	claims := fakeClaims{claimed: map[string]bool{"LAA001AAA": true}}

	rows, err := Query(ctx, idx, claims, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 0)

	rows, err = Query(ctx, idx, claims, Options{IncludeClaimed: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestQueryHybridOrdersByPriorityThenAge(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	old := time.Now().UTC().Add(-time.Hour)
	p2, p1 := 2, 1
	require.NoError(t, idx.Insert(ctx, index.DocumentRow{ID: "LAA001AAA", Path: "a.md", Name: "a", TaskType: "task", Priority: &p2, CreatedAt: old, UpdatedAt: old}))
	require.NoError(t, idx.Insert(ctx, index.DocumentRow{ID: "LAA002AAA", Path: "b.md", Name: "b", TaskType: "task", Priority: &p1, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}))

	rows, err := Query(ctx, idx, nil, Options{SortPolicy: Hybrid})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "LAA002AAA", rows[0].ID)
}
