package index

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleDoc(id, path string) DocumentRow {
	now := time.Now().UTC()
	return DocumentRow{
		ID: id, Path: path, Name: "n", Description: "d",
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestInsertAndLookupByID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Insert(ctx, sampleDoc("LAA001AAA", "docs/a.md")))

	got, err := s.LookupByID(ctx, "LAA001AAA")
	require.NoError(t, err)
	assert.Equal(t, "docs/a.md", got.Path)
}

func TestLookupByIDNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.LookupByID(ctx, "LAA999AAA")
	require.Error(t, err)
}

func TestLinkCountTriggersStaySynchronized(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Insert(ctx, sampleDoc("LAA001AAA", "a.md")))
	require.NoError(t, s.Insert(ctx, sampleDoc("LAA002AAA", "b.md")))

	require.NoError(t, s.InsertForDocument(ctx, []LinkRow{
		{SourceID: "LAA001AAA", TargetID: "LAA002AAA", Type: LinkBody, Position: 0},
	}))

	source, err := s.LookupByID(ctx, "LAA001AAA")
	require.NoError(t, err)
	assert.Equal(t, 1, source.LinkCount)

	target, err := s.LookupByID(ctx, "LAA002AAA")
	require.NoError(t, err)
	assert.Equal(t, 1, target.BacklinkCount)

	require.NoError(t, s.DeleteBySource(ctx, "LAA001AAA"))
	source, err = s.LookupByID(ctx, "LAA001AAA")
	require.NoError(t, err)
	assert.Equal(t, 0, source.LinkCount)
}

func TestQueryExcludesClosedByDefault(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	open := sampleDoc("LAA001AAA", "a.md")
	closed := sampleDoc("LAA002AAA", "b.md")
	closed.IsClosed = true
	require.NoError(t, s.Insert(ctx, open))
	require.NoError(t, s.Insert(ctx, closed))

	rows, err := s.Query(ctx, DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "LAA001AAA", rows[0].ID)
}

func TestIDsByPrefix(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Insert(ctx, sampleDoc("LAA001AAA", "a.md")))
	require.NoError(t, s.Insert(ctx, sampleDoc("LAA002AAA", "b.md")))
	require.NoError(t, s.Insert(ctx, sampleDoc("LBB001AAA", "c.md")))

	ids, err := s.IDsByPrefix(ctx, "LAA", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"LAA001AAA", "LAA002AAA"}, ids)
}

func TestNextCounterMonotonic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var first, second uint64
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		first, err = s.NextCounter(ctx, tx, "AAA")
		return err
	}))
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		second, err = s.NextCounter(ctx, tx, "AAA")
		return err
	}))

	assert.Equal(t, uint64(0), first)
	assert.Equal(t, uint64(1), second)
}
