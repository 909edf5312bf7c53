package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("hello"), 0o644))
	run("add", "a.md")
	run("commit", "-q", "-m", "init")
	return dir
}

func TestExecCurrentHeadAndWorkTree(t *testing.T) {
	dir := initTestRepo(t)
	g := New(dir)
	ctx := context.Background()

	head, err := g.CurrentHead(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, head)
	require.True(t, g.IsInsideWorkTree(ctx))
}

func TestExecDirtyMarkdownPaths(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("changed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("changed"), 0o644))

	g := New(dir)
	paths, err := g.DirtyMarkdownPaths(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.md"}, paths)
}

func TestFakeSatisfiesInterface(t *testing.T) {
	var _ GitOps = (*Fake)(nil)
}
