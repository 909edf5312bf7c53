// Package linkextract parses a document body for markdown link syntax and
// classifies each occurrence per the taxonomy in spec §3.4. Extraction is
// deterministic and side-effect-free; code fences and inline code spans are
// excluded.
package linkextract

import (
	"regexp"
	"strings"
)

// Kind discriminates the syntactic shape of a raw inline reference.
type Kind int

const (
	External Kind = iota
	Other
	Canonical
	PathOnly
	ShorthandId
)

func (k Kind) String() string {
	switch k {
	case External:
		return "External"
	case Canonical:
		return "Canonical"
	case PathOnly:
		return "PathOnly"
	case ShorthandId:
		return "ShorthandId"
	default:
		return "Other"
	}
}

// Link is one raw inline reference found in a document body.
type Link struct {
	Kind Kind
	Text string
	// Path is the relative path portion, if present (Canonical, PathOnly).
	Path string
	// FragmentID is the Lattice-ID fragment, if present (Canonical, ShorthandId).
	FragmentID string
	// Raw is the full "[text](target)" as it appeared in the source.
	Raw string
	// Line is the 1-based source line number.
	Line int
}

// linkPattern matches "[text](target)" where target has no unescaped
// parens; text and target are captured separately.
var linkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^()\s]+)\)`)

var externalScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Extract scans body for link syntax and returns every classified link in
// source order.
func Extract(body string) []Link {
	var links []Link
	lines := strings.Split(body, "\n")
	inFence := false

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		for _, l := range extractFromLine(line, lineNo) {
			links = append(links, l)
		}
	}
	return links
}

// extractFromLine finds link matches in a single line, skipping any match
// that falls inside an inline code span (delimited by backticks).
func extractFromLine(line string, lineNo int) []Link {
	codeSpans := inlineCodeSpans(line)

	var out []Link
	for _, m := range linkPattern.FindAllStringSubmatchIndex(line, -1) {
		start := m[0]
		if withinAny(start, codeSpans) {
			continue
		}
		text := line[m[2]:m[3]]
		target := line[m[4]:m[5]]
		raw := line[m[0]:m[1]]
		out = append(out, classify(text, target, raw, lineNo))
	}
	return out
}

type span struct{ start, end int }

func withinAny(pos int, spans []span) bool {
	for _, s := range spans {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

// inlineCodeSpans finds `...` regions so link matches inside them are
// skipped.
func inlineCodeSpans(line string) []span {
	var spans []span
	var open = -1
	for i, r := range line {
		if r == '`' {
			if open < 0 {
				open = i
			} else {
				spans = append(spans, span{open, i + 1})
				open = -1
			}
		}
	}
	return spans
}

func classify(text, target, raw string, line int) Link {
	if externalScheme.MatchString(target) {
		return Link{Kind: External, Text: text, Raw: raw, Line: line}
	}

	path, fragment, hasHash := strings.Cut(target, "#")

	switch {
	case path != "" && hasHash && fragment != "":
		return Link{Kind: Canonical, Text: text, Path: path, FragmentID: fragment, Raw: raw, Line: line}
	case !hasHash && looksLikeID(target):
		return Link{Kind: ShorthandId, Text: text, FragmentID: target, Raw: raw, Line: line}
	case path != "" && !hasHash && strings.HasSuffix(strings.ToLower(path), ".md"):
		return Link{Kind: PathOnly, Text: text, Path: path, Raw: raw, Line: line}
	case path == "" && hasHash && fragment != "":
		return Link{Kind: ShorthandId, Text: text, FragmentID: fragment, Raw: raw, Line: line}
	default:
		return Link{Kind: Other, Text: text, Raw: raw, Line: line}
	}
}

// looksLikeID is a cheap syntactic check ("[text](ID)" with no path and no
// fragment separator) so an unadorned Lattice ID is still recognized as
// ShorthandId per spec §3.4.
func looksLikeID(s string) bool {
	return strings.HasPrefix(s, "L") && len(s) >= 6 && !strings.Contains(s, "/") && !strings.Contains(s, ".")
}
