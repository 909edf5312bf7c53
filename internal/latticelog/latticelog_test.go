package latticelog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lattice.log")

	logger, w, err := New(path, 1)
	require.NoError(t, err)
	logger.Info("hello", "key", "value")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestRotatingWriterRotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.log")

	w, err := NewRotatingWriter(path)
	require.NoError(t, err)
	w.written = maxLogSize - 10 // force the next write past the threshold

	_, err = w.Write([]byte("0123456789012345678901234567890"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2) // rotated-aside original plus the fresh file
}
