// Package cliapp bundles the command context spec §6/L12 names: repo-root
// discovery, the git-ops/index/config/claims bundle, and the exit-code
// mapping every command handler formats errors through exactly once.
package cliapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lattice-run/lattice/internal/claims"
	"github.com/lattice-run/lattice/internal/config"
	"github.com/lattice-run/lattice/internal/gitops"
	"github.com/lattice-run/lattice/internal/index"
	"github.com/lattice-run/lattice/internal/latticeerr"
	"github.com/lattice-run/lattice/internal/latticelog"
	"github.com/lattice-run/lattice/internal/orchestrator"
	"github.com/lattice-run/lattice/internal/reconcile"
)

const latticeDir = ".lattice"

// App is the command context threaded through every cobra handler.
type App struct {
	Root         string
	Config       *config.Config
	Index        *index.Store
	Git          gitops.GitOps
	Claims       *claims.Registry
	Orchestrator *orchestrator.Orchestrator
	Log          *slog.Logger

	JSON    bool
	Verbose int

	closeLog func() error
}

// New discovers the repository root upward from cwd, opens the index,
// loads config, and wires every L1-L11 dependency into one context (spec
// §2's "startup" data flow).
func New(jsonOutput bool, verbosity int) (*App, error) {
	root, err := findRepoRoot()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(root, latticeDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &latticeerr.WriteError{Path: dir, Reason: err}
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	idx, err := index.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, err
	}

	logger, logWriter, err := latticelog.New(filepath.Join(dir, "logs.jsonl"), verbosity)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	claimsDir := filepath.Join(dir, "claims")
	reg, err := claims.New(claimsDir)
	if err != nil {
		_ = idx.Close()
		_ = logWriter.Close()
		return nil, err
	}

	syncSkillSymlinks(root)

	return &App{
		Root:         root,
		Config:       cfg,
		Index:        idx,
		Git:          gitops.New(root),
		Claims:       reg,
		Orchestrator: orchestrator.New(idx, root),
		Log:          logger,
		JSON:         jsonOutput,
		Verbose:      verbosity,
		closeLog:     logWriter.Close,
	}, nil
}

// Close releases the index handle and log file.
func (a *App) Close() error {
	var errs []error
	if a.Index != nil {
		if err := a.Index.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reconcile runs the reconciliation engine once, per spec §2's startup
// data flow ("before the first query of a session").
func (a *App) Reconcile(ctx context.Context) (reconcile.Result, error) {
	engine := reconcile.New(a.Root, a.Index, a.Git)
	return engine.Reconcile(ctx)
}

// syncSkillSymlinks keeps any skill-directory symlinks under root current.
// The on-disk format's skill field (spec §6.3) just names a skill; this
// repo has no skill registry to symlink against yet, so the step is a
// deliberate no-op kept as a startup hook for when one exists.
func syncSkillSymlinks(root string) {
	_ = root
}

// findRepoRoot walks upward from the working directory looking for a
// .lattice directory or a .git directory, mirroring the teacher's
// worktree-aware repo-root discovery.
func findRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, latticeDir)); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// ExitCode maps err to the stable exit-code scheme spec §6.1/§7 defines.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder latticeerr.Coder
	if errors.As(err, &coder) {
		switch coder.Code() {
		case latticeerr.CodeUserInput:
			return 2
		case latticeerr.CodeDocumentNotFound:
			return 3
		case latticeerr.CodeConflict:
			return 4
		case latticeerr.CodeIO:
			return 5
		case latticeerr.CodeInternal:
			return 6
		}
	}
	return 1
}
