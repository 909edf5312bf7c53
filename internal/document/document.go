// Package document reads and rewrites a markdown file as
// (front-matter, body), preserving non-semantic formatting.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// TaskType is one of the fixed task categories; empty for non-task documents.
type TaskType string

const (
	TaskTypeBug     TaskType = "bug"
	TaskTypeFeature TaskType = "feature"
	TaskTypeTask    TaskType = "task"
	TaskTypeChore   TaskType = "chore"
)

// Frontmatter holds every recognized key in the fixed serialization order.
// Unknown keys in a parsed file fail validation (see parseFrontmatter).
type Frontmatter struct {
	ID              string    `yaml:"id"`
	ParentID        string    `yaml:"parent_id,omitempty"`
	Name            string    `yaml:"name"`
	Description     string    `yaml:"description"`
	TaskType        TaskType  `yaml:"task_type,omitempty"`
	Priority        *int      `yaml:"priority,omitempty"`
	CreatedAt       time.Time `yaml:"created_at"`
	UpdatedAt       time.Time `yaml:"updated_at"`
	ClosedAt        *time.Time `yaml:"closed_at,omitempty"`
	Blocking        []string  `yaml:"blocking,omitempty"`
	BlockedBy       []string  `yaml:"blocked_by,omitempty"`
	DiscoveredFrom  []string  `yaml:"discovered_from,omitempty"`
	Labels          []string  `yaml:"labels,omitempty"`
	Skill           string    `yaml:"skill,omitempty"`
}

// frontmatterKeyOrder is the fixed key order spec §6.3 requires in written
// output. yaml.v3 serializes struct fields in declaration order, so the
// written order comes from the Frontmatter field order above; no code or
// test in this module reads this slice.
var frontmatterKeyOrder = []string{
	"id", "parent_id", "name", "description", "task_type", "priority",
	"created_at", "updated_at", "closed_at",
	"blocking", "blocked_by", "discovered_from", "labels", "skill",
}

// Document is a parsed markdown file: front-matter plus body bytes.
type Document struct {
	Frontmatter Frontmatter
	Body        string

	// Path-derived fields, not stored in front-matter (spec §3.1).
	Path        string
	IsClosed    bool
	IsRoot      bool
	InTasksDir  bool
	InDocsDir   bool
}

// BodyHash returns the content-hash of the body used for change detection
// and the index's content_cache staleness check.
func (d *Document) BodyHash() string {
	sum := sha256.Sum256([]byte(d.Body))
	return hex.EncodeToString(sum[:])
}

// ContentLength is the byte length of the body.
func (d *Document) ContentLength() int { return len(d.Body) }

// DeriveClosed reports whether path contains a /.closed/ segment (spec §3.1
// invariant 3).
func DeriveClosed(path string) bool {
	return strings.Contains(path, "/.closed/") || strings.HasPrefix(path, ".closed/")
}

// DeriveRoot reports whether the file stem equals its containing
// directory's name, or the stem begins with "00_" (spec §3.1 invariant 4,
// glossary "Root document").
func DeriveRoot(path string) bool {
	dir, stem := splitDirStem(path)
	if strings.HasPrefix(stem, "00_") {
		return true
	}
	parentName := lastPathComponent(dir)
	return parentName != "" && parentName == stem
}

func splitDirStem(path string) (dir, stem string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		dir = ""
	} else {
		dir = path[:idx]
	}
	base := path
	if idx >= 0 {
		base = path[idx+1:]
	}
	stem = strings.TrimSuffix(base, ".md")
	return dir, stem
}

func lastPathComponent(dir string) string {
	if dir == "" {
		return ""
	}
	idx := strings.LastIndex(dir, "/")
	if idx < 0 {
		return dir
	}
	return dir[idx+1:]
}

// DeriveInTasksDir reports whether path runs through a "tasks/" segment.
func DeriveInTasksDir(path string) bool {
	return containsSegment(path, "tasks")
}

// DeriveInDocsDir reports whether path runs through a "docs/" segment.
func DeriveInDocsDir(path string) bool {
	return containsSegment(path, "docs")
}

func containsSegment(path, segment string) bool {
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
