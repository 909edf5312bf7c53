package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-run/lattice/internal/claims"
	"github.com/lattice-run/lattice/internal/cliapp"
	"github.com/lattice-run/lattice/internal/config"
	"github.com/lattice-run/lattice/internal/document"
	"github.com/lattice-run/lattice/internal/gitops"
	"github.com/lattice-run/lattice/internal/index"
	"github.com/lattice-run/lattice/internal/orchestrator"
)

// testApp builds an *App directly against a temp directory, bypassing
// PersistentPreRunE's cwd-based repo-root discovery, so command RunE
// functions can be exercised in isolation.
func testApp(t *testing.T) *cliapp.App {
	t.Helper()
	root := t.TempDir()
	idx, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	reg, err := claims.New(filepath.Join(root, ".lattice", "claims"))
	require.NoError(t, err)

	return &cliapp.App{
		Root:         root,
		Config:       &config.Config{ClientID: "AAA"},
		Index:        idx,
		Git:          &gitops.Fake{Head: "deadbeef"},
		Claims:       reg,
		Orchestrator: orchestrator.New(idx, root),
	}
}

func TestCreateShowListRoundTrip(t *testing.T) {
	app = testApp(t)
	jsonOutput = false
	ctx := context.Background()

	row, err := app.Create(ctx, cliapp.CreateInput{
		Dir:      "tasks",
		Name:     "fix-crash",
		TaskType: document.TaskTypeBug,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, row.ID)

	shown, err := app.Show(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, "fix-crash", shown.Name)

	rows, err := app.List(ctx, index.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExitCodeMappingThroughMain(t *testing.T) {
	assert.Equal(t, 0, cliapp.ExitCode(nil))
}
