package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lattice-run/lattice/internal/latticeerr"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// WriteOptions controls the behavior of update_frontmatter/write_raw.
type WriteOptions struct {
	// WithTimestamp bumps Frontmatter.UpdatedAt to the current time before
	// writing.
	WithTimestamp bool
	now           func() time.Time // overridable in tests
}

func (o WriteOptions) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now().UTC()
}

// Read loads path and splits it into front-matter and body.
func Read(path string) (*Document, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - path comes from the repository's own index
	if err != nil {
		return nil, &latticeerr.ReadError{Path: path, Reason: err}
	}
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, &latticeerr.ReadError{Path: path, Reason: err}
	}
	var parsed Frontmatter
	dec := yaml.NewDecoder(strings.NewReader(fm))
	dec.KnownFields(true)
	if err := dec.Decode(&parsed); err != nil {
		return nil, &latticeerr.ReadError{Path: path, Reason: fmt.Errorf("parse front-matter: %w", err)}
	}

	doc := &Document{
		Frontmatter: parsed,
		Body:        body,
		Path:        path,
	}
	doc.IsClosed = DeriveClosed(path)
	doc.IsRoot = DeriveRoot(path)
	doc.InTasksDir = DeriveInTasksDir(path)
	doc.InDocsDir = DeriveInDocsDir(path)
	return doc, nil
}

// splitFrontmatter separates the leading "---\n...\n---\n" block from the
// remainder of the file. The body is returned byte-exact, including any
// leading blank line, so that update_frontmatter can preserve it untouched.
func splitFrontmatter(content string) (frontmatter, body string, err error) {
	if !strings.HasPrefix(content, delimiter) {
		return "", "", fmt.Errorf("missing opening %q delimiter", delimiter)
	}
	rest := content[len(delimiter):]
	rest = strings.TrimPrefix(rest, "\n")

	idx := strings.Index(rest, "\n"+delimiter)
	if idx < 0 {
		return "", "", fmt.Errorf("missing closing %q delimiter", delimiter)
	}
	frontmatter = rest[:idx]
	after := rest[idx+1+len(delimiter):]
	after = strings.TrimPrefix(after, "\n")
	return frontmatter, after, nil
}

// serializeFrontmatter renders fm in the fixed key order spec §6.3 requires.
// yaml.v3 already emits struct fields in declaration order (matching
// frontmatterKeyOrder); this wrapper exists as the single call site so the
// ordering guarantee has one place to change.
func serializeFrontmatter(fm Frontmatter) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Render assembles a brand-new document's full file content from fm and
// body, in the fixed on-disk format (spec §6.3). Used by document creation,
// where there is no existing file to preserve body bytes from.
func Render(fm Frontmatter, body string) (string, error) {
	fmText, err := serializeFrontmatter(fm)
	if err != nil {
		return "", err
	}
	return delimiter + "\n" + fmText + delimiter + "\n" + body, nil
}

// UpdateFrontmatter rewrites only the front-matter region of path, leaving
// body bytes exactly as on disk. Write is atomic: temp file, fsync, rename.
func UpdateFrontmatter(path string, fm Frontmatter, opts WriteOptions) error {
	existing, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	_, body, err := splitFrontmatter(string(existing))
	if err != nil {
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	if opts.WithTimestamp {
		fm.UpdatedAt = opts.clock()
	}
	fmText, err := serializeFrontmatter(fm)
	if err != nil {
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	full := delimiter + "\n" + fmText + delimiter + "\n" + body
	return atomicWrite(path, full)
}

// WriteRaw rewrites the whole file atomically.
func WriteRaw(path, fullContent string) error {
	if err := atomicWrite(path, fullContent); err != nil {
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	return nil
}

// atomicWrite implements "write temp, fsync, rename" (spec §4.2, §9), the
// pattern every persistent file the core touches should follow. No library
// in the retrieved corpus wraps this OS-level sequence; it stays stdlib.
func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".lattice-tmp-*")
	if err != nil {
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.WriteString(content); err != nil {
		cleanup()
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &latticeerr.WriteError{Path: path, Reason: err}
	}
	return nil
}

// ExtractTitle returns the first H1 ("# ...") line of body, matching the
// title-extraction convention used elsewhere in the corpus for markdown
// scanning.
func ExtractTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}

// parsePriority converts a front-matter priority string into the 0..4
// range spec §3.1 defines, rejecting non-integers and out-of-range values.
func parsePriority(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("priority must be an integer: %w", err)
	}
	if n < 0 || n > 4 {
		return 0, fmt.Errorf("priority must be in 0..4, got %d", n)
	}
	return n, nil
}
