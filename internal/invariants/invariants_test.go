package invariants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lattice-run/lattice/internal/gitops"
	"github.com/lattice-run/lattice/internal/index"
)

type fakeFS struct {
	ids   map[string]string
	paths []string
	body  map[string]string
}

func (f fakeFS) ReadFrontmatterID(path string) (string, bool, error) {
	id, ok := f.ids[path]
	return id, ok, nil
}

func (f fakeFS) ReadBody(path string) (string, error) {
	return f.body[path], nil
}

func (f fakeFS) Walk() ([]string, error) { return f.paths, nil }

func openTestIndex(t *testing.T) *index.Store {
	t.Helper()
	s, err := index.Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insertDoc(t *testing.T, idx *index.Store, id, path string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, idx.Insert(context.Background(), index.DocumentRow{
		ID: id, Path: path, Name: id, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestCheckAllPassesOnConsistentState(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	insertDoc(t, idx, "LAA001AAA", "docs/a.md")

	fs := fakeFS{
		ids:   map[string]string{"docs/a.md": "LAA001AAA"},
		paths: []string{"docs/a.md"},
		body:  map[string]string{"docs/a.md": ""},
	}
	git := &gitops.Fake{StatusOutput: "clean"}

	c := New(idx, fs, git)
	v, err := c.CheckAll(ctx)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestCheckAllDetectsOrphanedIndex(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	insertDoc(t, idx, "LAA001AAA", "docs/a.md")

	fs := fakeFS{ids: map[string]string{}, paths: []string{}, body: map[string]string{}}
	c := New(idx, fs, &gitops.Fake{})

	v, err := c.CheckAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, IndexHasOrphanedID, v.Invariant)
}

func TestCheckAllDetectsUnindexedFile(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	fs := fakeFS{
		ids:   map[string]string{"docs/b.md": "LAA002AAA"},
		paths: []string{"docs/b.md"},
		body:  map[string]string{},
	}
	c := New(idx, fs, &gitops.Fake{})

	v, err := c.CheckAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, FilesystemHasUnindexedDoc, v.Invariant)
}

func TestCheckAllDetectsClosedStateInconsistency(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	now := time.Now().UTC()
	require.NoError(t, idx.Insert(ctx, index.DocumentRow{
		ID: "LAA001AAA", Path: ".closed/a.md", Name: "a", IsClosed: false, CreatedAt: now, UpdatedAt: now,
	}))

	fs := fakeFS{
		ids:   map[string]string{".closed/a.md": "LAA001AAA"},
		paths: []string{".closed/a.md"},
		body:  map[string]string{".closed/a.md": ""},
	}
	c := New(idx, fs, &gitops.Fake{})

	v, err := c.CheckAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, ClosedStateInconsistency, v.Invariant)
}

func TestCheckAllDetectsLinkPathMismatch(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	insertDoc(t, idx, "LAA001AAA", "docs/a.md")
	insertDoc(t, idx, "LAA002AAA", "docs/moved.md")

	body := "see [target](old.md#LAA002AAA)"
	fs := fakeFS{
		ids:   map[string]string{"docs/a.md": "LAA001AAA", "docs/moved.md": "LAA002AAA"},
		paths: []string{"docs/a.md", "docs/moved.md"},
		body:  map[string]string{"docs/a.md": body, "docs/moved.md": ""},
	}
	c := New(idx, fs, &gitops.Fake{})

	v, err := c.CheckAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, LinkPathMismatch, v.Invariant)
}
