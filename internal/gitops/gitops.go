// Package gitops defines the narrow git capability surface spec §6.6 grants
// the reconciliation engine and invariants checker, following the
// exec.Command-wrapping style the teacher uses for its own worktree-aware
// git helpers.
package gitops

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitOps is the capability interface spec §6.6 names: current_head,
// dirty_markdown_paths, is_inside_work_tree, status.
type GitOps interface {
	CurrentHead(ctx context.Context) (string, error)
	DirtyMarkdownPaths(ctx context.Context) ([]string, error)
	IsInsideWorkTree(ctx context.Context) bool
	Status(ctx context.Context) (string, error)
}

// Exec shells out to the git binary in dir.
type Exec struct {
	Dir string
}

// New returns an Exec-backed GitOps rooted at dir.
func New(dir string) *Exec {
	return &Exec{Dir: dir}
}

func (g *Exec) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentHead returns the current commit SHA.
func (g *Exec) CurrentHead(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "HEAD")
}

// DirtyMarkdownPaths returns working-tree-relative paths of every *.md file
// that differs from HEAD (spec §6.6), derived from `git status --porcelain`.
func (g *Exec) DirtyMarkdownPaths(ctx context.Context) ([]string, error) {
	// Not via run: trimming the output would drop the leading space of the
	// first line's two-column status code.
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain", "--no-renames")
	cmd.Dir = g.Dir
	raw, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git status --porcelain --no-renames: %w", err)
	}
	var paths []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		if len(line) < 4 {
			continue
		}
		p := strings.TrimSpace(line[3:])
		if strings.HasSuffix(p, ".md") {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// IsInsideWorkTree reports whether Dir is inside a git working tree.
func (g *Exec) IsInsideWorkTree(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Status returns raw `git status` output, used only as a liveness check by
// the invariants checker (spec §4.10).
func (g *Exec) Status(ctx context.Context) (string, error) {
	return g.run(ctx, "status")
}
