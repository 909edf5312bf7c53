package linknorm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lattice-run/lattice/internal/linkextract"
)

type fakeIndex struct {
	pathsByID map[string]string
	idsByPath map[string]string
}

func (f fakeIndex) LookupPathByID(id string) (string, bool) {
	p, ok := f.pathsByID[id]
	return p, ok
}

func (f fakeIndex) LookupIDByPath(p string) (string, bool) {
	id, ok := f.idsByPath[p]
	return id, ok
}

func TestAnalyzeSkipsExternalAndOther(t *testing.T) {
	idx := fakeIndex{}
	a := Analyze(idx, "docs", linkextract.Link{Kind: linkextract.External})
	assert.Equal(t, Skip, a.Resolution)

	a = Analyze(idx, "docs", linkextract.Link{Kind: linkextract.Other})
	assert.Equal(t, Skip, a.Resolution)
}

func TestAnalyzeExpandsShorthand(t *testing.T) {
	idx := fakeIndex{pathsByID: map[string]string{"LAA001AAA": "docs/target.md"}}
	a := Analyze(idx, "docs/sub", linkextract.Link{Kind: linkextract.ShorthandId, FragmentID: "LAA001AAA"})
	assert.Equal(t, Normalizable, a.Resolution)
	assert.Equal(t, ExpandShorthand, a.Action)
	assert.Equal(t, "../target.md", a.NewPath)
}

func TestAnalyzeShorthandUnresolvable(t *testing.T) {
	idx := fakeIndex{}
	a := Analyze(idx, "docs", linkextract.Link{Kind: linkextract.ShorthandId, FragmentID: "LZZ999AAA"})
	assert.Equal(t, Unresolvable, a.Resolution)
	assert.Equal(t, TargetNotFound, a.Reason)
}

func TestAnalyzeAddsFragmentToPathOnly(t *testing.T) {
	idx := fakeIndex{idsByPath: map[string]string{"docs/target.md": "LAA002AAA"}}
	a := Analyze(idx, "docs", linkextract.Link{Kind: linkextract.PathOnly, Path: "target.md"})
	assert.Equal(t, Normalizable, a.Resolution)
	assert.Equal(t, AddFragment, a.Action)
	assert.Equal(t, "LAA002AAA", a.TargetID)
}

func TestAnalyzePathOnlyUnresolvable(t *testing.T) {
	idx := fakeIndex{}
	a := Analyze(idx, "docs", linkextract.Link{Kind: linkextract.PathOnly, Path: "missing.md"})
	assert.Equal(t, Unresolvable, a.Resolution)
	assert.Equal(t, PathNotFound, a.Reason)
}

func TestAnalyzeCanonicalSkipsWhenPathMatches(t *testing.T) {
	idx := fakeIndex{pathsByID: map[string]string{"LAA003AAA": "docs/x.md"}}
	a := Analyze(idx, "docs", linkextract.Link{Kind: linkextract.Canonical, Path: "x.md", FragmentID: "LAA003AAA"})
	assert.Equal(t, Skip, a.Resolution)
}

func TestAnalyzeCanonicalUpdatesStalePath(t *testing.T) {
	idx := fakeIndex{pathsByID: map[string]string{"LAA003AAA": "docs/moved.md"}}
	a := Analyze(idx, "docs", linkextract.Link{Kind: linkextract.Canonical, Path: "x.md", FragmentID: "LAA003AAA"})
	assert.Equal(t, Normalizable, a.Resolution)
	assert.Equal(t, UpdatePath, a.Action)
	assert.Equal(t, "moved.md", a.NewPath)
}

func TestApplyTransformsAppliesHighestLineFirst(t *testing.T) {
	content := "line one [a](b)\nline two [c](d)\n"
	transforms := []Transform{
		{Line: 1, Raw: "[a](b)", NewText: "[a](B)"},
		{Line: 2, Raw: "[c](d)", NewText: "[c](D)"},
	}
	out := ApplyTransforms(content, transforms)
	assert.Equal(t, "line one [a](B)\nline two [c](D)\n", out)
}
