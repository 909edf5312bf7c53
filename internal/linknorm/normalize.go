// Package linknorm transforms non-canonical links into canonical form using
// the index (spec §4.5): ShorthandId gets a path added, PathOnly gets a
// fragment added, Canonical gets its path corrected if the target moved.
package linknorm

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/lattice-run/lattice/internal/linkextract"
)

// Resolution is the outcome of analyzing one extracted link.
type Resolution int

const (
	Skip Resolution = iota
	Normalizable
	Unresolvable
)

// UnresolvableReason names why a link could not be normalized.
type UnresolvableReason int

const (
	ReasonNone UnresolvableReason = iota
	TargetNotFound
	PathNotFound
)

// Action describes the specific rewrite to apply.
type Action int

const (
	ActionNone Action = iota
	ExpandShorthand
	AddFragment
	UpdatePath
)

// Analysis is the per-link result of Analyze.
type Analysis struct {
	Link         linkextract.Link
	Resolution   Resolution
	Reason       UnresolvableReason
	Action       Action
	NewPath      string
	TargetID     string
}

// Index is the subset of the index store the normalizer needs.
type Index interface {
	// LookupPathByID returns the current path of a document, or ok=false.
	LookupPathByID(id string) (p string, ok bool)
	// LookupIDByPath returns the document ID at path, or ok=false.
	LookupIDByPath(path string) (id string, ok bool)
}

// Analyze classifies and resolves one link per spec §4.5's table.
// sourceDir is the directory containing the source document, used to
// compute relative paths.
func Analyze(idx Index, sourceDir string, link linkextract.Link) Analysis {
	switch link.Kind {
	case linkextract.External, linkextract.Other:
		return Analysis{Link: link, Resolution: Skip}

	case linkextract.ShorthandId:
		targetPath, ok := idx.LookupPathByID(link.FragmentID)
		if !ok {
			return Analysis{Link: link, Resolution: Unresolvable, Reason: TargetNotFound}
		}
		rel := relativePath(sourceDir, targetPath)
		return Analysis{Link: link, Resolution: Normalizable, Action: ExpandShorthand, NewPath: rel, TargetID: link.FragmentID}

	case linkextract.PathOnly:
		abs := normalizeJoin(sourceDir, link.Path)
		targetID, ok := idx.LookupIDByPath(abs)
		if !ok {
			return Analysis{Link: link, Resolution: Unresolvable, Reason: PathNotFound}
		}
		return Analysis{Link: link, Resolution: Normalizable, Action: AddFragment, TargetID: targetID}

	case linkextract.Canonical:
		targetPath, ok := idx.LookupPathByID(link.FragmentID)
		if !ok {
			return Analysis{Link: link, Resolution: Unresolvable, Reason: TargetNotFound}
		}
		currentRef := normalizeJoin(sourceDir, link.Path)
		if currentRef == targetPath {
			return Analysis{Link: link, Resolution: Skip}
		}
		rel := relativePath(sourceDir, targetPath)
		return Analysis{Link: link, Resolution: Normalizable, Action: UpdatePath, NewPath: rel, TargetID: link.FragmentID}
	}

	return Analysis{Link: link, Resolution: Skip}
}

// normalizeJoin resolves path relative to dir, collapsing "." and "..".
func normalizeJoin(dir, rel string) string {
	joined := path.Join(dir, rel)
	return strings.TrimPrefix(joined, "/")
}

// relativePath computes the path from dir to target, suitable for embedding
// in a markdown link.
func relativePath(dir, target string) string {
	rel, err := relTo(dir, target)
	if err != nil {
		return target
	}
	return rel
}

// relTo is a minimal path.Rel-equivalent for slash-separated repo-relative
// paths (path.Rel does not exist in the standard library; filepath.Rel
// operates on OS paths and would mishandle repository-relative unix-style
// inputs on non-unix build targets).
func relTo(base, target string) (string, error) {
	baseParts := splitPath(base)
	targetParts := splitPath(target)

	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	ups := len(baseParts) - common
	var out []string
	for i := 0; i < ups; i++ {
		out = append(out, "..")
	}
	out = append(out, targetParts[common:]...)
	if len(out) == 0 {
		return ".", nil
	}
	return strings.Join(out, "/"), nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Transform is one concrete body rewrite to apply, matching a specific
// "[text](path#fragment)" occurrence.
type Transform struct {
	Line    int
	Raw     string
	NewText string
}

// BuildTransform converts a Normalizable Analysis into a Transform.
func BuildTransform(a Analysis) Transform {
	link := a.Link
	var newTarget string
	switch a.Action {
	case ExpandShorthand:
		newTarget = fmt.Sprintf("%s#%s", a.NewPath, a.TargetID)
	case AddFragment:
		newTarget = fmt.Sprintf("%s#%s", link.Path, a.TargetID)
	case UpdatePath:
		newTarget = fmt.Sprintf("%s#%s", a.NewPath, a.TargetID)
	}
	return Transform{
		Line:    link.Line,
		Raw:     link.Raw,
		NewText: fmt.Sprintf("[%s](%s)", link.Text, newTarget),
	}
}

// ApplyTransforms rewrites content, replacing each transform's Raw
// occurrence with NewText. Transforms are applied in descending line order
// so earlier byte offsets in the file are never shifted by a later edit
// (spec §4.5).
func ApplyTransforms(content string, transforms []Transform) string {
	sorted := append([]Transform{}, transforms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Line > sorted[j].Line })

	lines := strings.Split(content, "\n")
	for _, t := range sorted {
		idx := t.Line - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		lines[idx] = replaceFirst(lines[idx], t.Raw, t.NewText)
	}
	return strings.Join(lines, "\n")
}

func replaceFirst(s, old, new string) string {
	return strings.Replace(s, old, new, 1)
}
