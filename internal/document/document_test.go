package document

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sample = `---
id: LAA001AAA
name: guide
description: a guide
created_at: 2026-01-01T00:00:00Z
updated_at: 2026-01-01T00:00:00Z
---
# Guide

Body text.
`

func TestReadSplitsFrontmatterAndBody(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docs/guide.md", sample)

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "LAA001AAA", doc.Frontmatter.ID)
	assert.Equal(t, "guide", doc.Frontmatter.Name)
	assert.Contains(t, doc.Body, "# Guide")
	assert.False(t, doc.IsClosed)
	assert.False(t, doc.IsRoot)
	assert.True(t, doc.InDocsDir)
}

func TestReadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docs/bad.md", "---\nid: LAA001AAA\nbogus_key: x\n---\nbody\n")
	_, err := Read(path)
	require.Error(t, err)
}

func TestRoundTripUpdateFrontmatterPreservesBody(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docs/guide.md", sample)

	doc, err := Read(path)
	require.NoError(t, err)
	bodyBefore := doc.Body

	doc.Frontmatter.Description = "an updated guide"
	require.NoError(t, UpdateFrontmatter(path, doc.Frontmatter, WriteOptions{}))

	reread, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "an updated guide", reread.Frontmatter.Description)
	assert.Equal(t, bodyBefore, reread.Body)
}

func TestUpdateFrontmatterWithTimestampBumpsUpdatedAt(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docs/guide.md", sample)
	doc, err := Read(path)
	require.NoError(t, err)

	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	opts := WriteOptions{WithTimestamp: true, now: func() time.Time { return fixed }}
	require.NoError(t, UpdateFrontmatter(path, doc.Frontmatter, opts))

	reread, err := Read(path)
	require.NoError(t, err)
	assert.True(t, reread.Frontmatter.UpdatedAt.Equal(fixed))
}

func TestDeriveClosed(t *testing.T) {
	assert.True(t, DeriveClosed("tasks/.closed/foo.md"))
	assert.False(t, DeriveClosed("tasks/foo.md"))
}

func TestDeriveRootByStemMatchingDir(t *testing.T) {
	assert.True(t, DeriveRoot("modules/widget/widget.md"))
	assert.False(t, DeriveRoot("modules/widget/other.md"))
}

func TestDeriveRootByNumericPrefix(t *testing.T) {
	assert.True(t, DeriveRoot("modules/widget/00_overview.md"))
}

func TestBodyHashStableAcrossReads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docs/guide.md", sample)
	doc1, err := Read(path)
	require.NoError(t, err)
	doc2, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, doc1.BodyHash(), doc2.BodyHash())
}
