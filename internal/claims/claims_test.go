package claims

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(t.TempDir())
	require.NoError(t, err)
	return r
}

func TestClaimThenReadRoundTrips(t *testing.T) {
	r := newTestRegistry(t)
	c, err := r.Claim("LAA001AAA", "alice", "/work/a")
	require.NoError(t, err)
	assert.Equal(t, "LAA001AAA", c.TaskID)

	got, ok, err := r.Read("LAA001AAA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", got.ClaimedBy)
}

func TestClaimFailsWhenAlreadyClaimed(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Claim("LAA001AAA", "alice", "/work/a")
	require.NoError(t, err)

	_, err = r.Claim("LAA001AAA", "bob", "/work/b")
	require.Error(t, err)
	assert.ErrorIs(t, err, latticeerr.ErrConflict)

	var conflict *latticeerr.ClaimConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "LAA001AAA", conflict.ID)
	assert.Equal(t, "/work/a", conflict.ExistingWorktree)
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Claim("LAA001AAA", "alice", "/work/a")
	require.NoError(t, err)

	require.NoError(t, r.Release("LAA001AAA"))
	require.NoError(t, r.Release("LAA001AAA"))

	_, ok, err := r.Read("LAA001AAA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsStaleDetectsClosedAndMissingTask(t *testing.T) {
	c := &Claim{TaskID: "LAA001AAA", ClaimedAt: time.Now().UTC()}

	assert.True(t, c.IsStale(StaleCheck{TaskExists: func(string) bool { return false }}))
	assert.True(t, c.IsStale(StaleCheck{
		TaskExists:   func(string) bool { return true },
		TaskIsClosed: func(string) bool { return true },
	}))
	assert.False(t, c.IsStale(StaleCheck{
		TaskExists:   func(string) bool { return true },
		TaskIsClosed: func(string) bool { return false },
	}))
}

func TestIsStaleDetectsMissingWorktreeAndAge(t *testing.T) {
	c := &Claim{TaskID: "LAA001AAA", Worktree: "/gone", ClaimedAt: time.Now().UTC()}
	assert.True(t, c.IsStale(StaleCheck{WorktreeExists: func(string) bool { return false }}))

	old := &Claim{TaskID: "LAA002AAA", ClaimedAt: time.Now().UTC().Add(-48 * time.Hour)}
	assert.True(t, old.IsStale(StaleCheck{StaleAfter: 24 * time.Hour}))
}

func TestCleanupStaleReleasesOnlyStaleClaims(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Claim("LAA001AAA", "alice", "/work/a")
	require.NoError(t, err)
	_, err = r.Claim("LAA002AAA", "bob", "/work/b")
	require.NoError(t, err)

	released, err := r.CleanupStale(StaleCheck{
		TaskExists: func(id string) bool { return id != "LAA001AAA" },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"LAA001AAA"}, released)

	_, ok, err := r.Read("LAA002AAA")
	require.NoError(t, err)
	assert.True(t, ok)
}
