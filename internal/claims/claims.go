// Package claims implements the file-backed claim registry (spec §3.5,
// §4.9): one process claims a task by atomically creating a claim file with
// O_CREAT|O_EXCL, the same race-free primitive the teacher's lockfile
// package leans on for its daemon lock, here used directly as the
// mutual-exclusion mechanism rather than as a guard around a lock byte.
package claims

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lattice-run/lattice/internal/latticeerr"
)

// Claim is the JSON body of one claim file.
type Claim struct {
	TaskID    string    `json:"task_id"`
	ClaimedBy string    `json:"claimed_by"`
	PID       int       `json:"pid"`
	Worktree  string    `json:"worktree"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// Registry manages claim files under dir (typically .lattice/claims/).
type Registry struct {
	dir string
}

// New returns a Registry rooted at dir, creating it if absent.
func New(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create claims directory: %w", err)
	}
	return &Registry{dir: dir}, nil
}

func (r *Registry) path(taskID string) string {
	return filepath.Join(r.dir, taskID+".claim.json")
}

// ErrAlreadyClaimed is returned by Claim when taskID's claim file already
// exists but cannot be read or parsed; a readable existing claim yields a
// *latticeerr.ClaimConflictError instead. The claimant is not compared.
var ErrAlreadyClaimed = fmt.Errorf("task already claimed")

// ErrCleanupInProgress is returned when another process already holds the
// cleanup sentinel lock.
var ErrCleanupInProgress = fmt.Errorf("cleanup already in progress")

// Claim attempts to atomically acquire taskID for claimedBy. The O_EXCL
// create either succeeds (no prior file existed) or fails with
// os.IsExist, which is the only signal this function trusts. The file is
// created empty and then written, so a second process racing this one can
// find it incomplete; that process then gets ErrAlreadyClaimed.
func (r *Registry) Claim(taskID, claimedBy, worktree string) (*Claim, error) {
	c := &Claim{
		TaskID:    taskID,
		ClaimedBy: claimedBy,
		PID:       os.Getpid(),
		Worktree:  worktree,
		ClaimedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal claim: %w", err)
	}

	f, err := os.OpenFile(r.path(taskID), os.O_CREAT|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			existing, ok, readErr := r.Read(taskID)
			if readErr != nil || !ok {
				return nil, ErrAlreadyClaimed
			}
			return nil, &latticeerr.ClaimConflictError{ID: taskID, ExistingWorktree: existing.Worktree}
		}
		return nil, fmt.Errorf("create claim file for %s: %w", taskID, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(r.path(taskID))
		return nil, fmt.Errorf("write claim file for %s: %w", taskID, err)
	}
	if err := f.Sync(); err != nil {
		_ = os.Remove(r.path(taskID))
		return nil, fmt.Errorf("sync claim file for %s: %w", taskID, err)
	}
	return c, nil
}

// Release removes taskID's claim file. Absence of the file is not an error
// (spec §4.9: release is idempotent).
func (r *Registry) Release(taskID string) error {
	err := os.Remove(r.path(taskID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release claim for %s: %w", taskID, err)
	}
	return nil
}

// Read returns the current claim for taskID, or ok=false if unclaimed.
func (r *Registry) Read(taskID string) (*Claim, bool, error) {
	data, err := os.ReadFile(r.path(taskID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read claim for %s: %w", taskID, err)
	}
	var c Claim
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, false, fmt.Errorf("parse claim for %s: %w", taskID, err)
	}
	return &c, true, nil
}

// IsClaimed satisfies ready.ClaimChecker.
func (r *Registry) IsClaimed(taskID string) bool {
	_, ok, err := r.Read(taskID)
	return err == nil && ok
}

// All returns every currently recorded claim, keyed by task ID.
func (r *Registry) All() (map[string]*Claim, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list claims directory: %w", err)
	}
	out := map[string]*Claim{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		taskID, ok := taskIDFromFilename(e.Name())
		if !ok {
			continue
		}
		c, found, err := r.Read(taskID)
		if err != nil || !found {
			continue
		}
		out[taskID] = c
	}
	return out, nil
}

func taskIDFromFilename(name string) (string, bool) {
	const suffix = ".claim.json"
	if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
		return "", false
	}
	return name[:len(name)-len(suffix)], true
}

// StaleCheck is the capability set the reconciliation/lattice-ops layer must
// supply to evaluate staleness (spec §3.5): whether the claimed task is
// still open and indexed, and whether the recorded worktree still exists.
type StaleCheck struct {
	TaskExists     func(taskID string) bool
	TaskIsClosed   func(taskID string) bool
	WorktreeExists func(path string) bool
	StaleAfter     time.Duration
}

// IsStale evaluates c against check's four staleness conditions (spec
// §3.5): the task vanished from the index, the task closed, the recorded
// worktree no longer exists, or the claim has aged past StaleAfter.
func (c *Claim) IsStale(check StaleCheck) bool {
	if check.TaskExists != nil && !check.TaskExists(c.TaskID) {
		return true
	}
	if check.TaskIsClosed != nil && check.TaskIsClosed(c.TaskID) {
		return true
	}
	if check.WorktreeExists != nil && c.Worktree != "" && !check.WorktreeExists(c.Worktree) {
		return true
	}
	if check.StaleAfter > 0 && time.Since(c.ClaimedAt) > check.StaleAfter {
		return true
	}
	return false
}

// CleanupStale releases every claim that check judges stale, guarded by a
// exclusive non-blocking flock on a sentinel file so two concurrent cleanup
// sweeps never interleave their reads and removals (the same flock-as-guard
// role it plays around the teacher's daemon lock, here protecting a sweep
// rather than a singleton process).
func (r *Registry) CleanupStale(check StaleCheck) ([]string, error) {
	sentinel := filepath.Join(r.dir, ".cleanup.lock")
	f, err := os.OpenFile(sentinel, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open cleanup sentinel: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := flockExclusiveNonBlocking(f); err != nil {
		return nil, fmt.Errorf("cleanup already in progress: %w", err)
	}
	defer func() { _ = flockUnlock(f) }()

	all, err := r.All()
	if err != nil {
		return nil, err
	}

	var released []string
	for taskID, c := range all {
		if c.IsStale(check) {
			if err := r.Release(taskID); err != nil {
				return released, err
			}
			released = append(released, taskID)
		}
	}
	return released, nil
}

// FormatStaleAge renders a claim's age for human-facing stale reports.
func FormatStaleAge(c *Claim) string {
	d := time.Since(c.ClaimedAt)
	if d < time.Minute {
		return strconv.Itoa(int(d.Seconds())) + "s"
	}
	if d < time.Hour {
		return strconv.Itoa(int(d.Minutes())) + "m"
	}
	return strconv.Itoa(int(d.Hours())) + "h"
}
