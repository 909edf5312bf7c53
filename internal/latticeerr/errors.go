// Package latticeerr defines the typed error taxonomy shared by every core
// package. Library code never prints; it returns one of these and lets the
// command layer format it once.
package latticeerr

import (
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUserInput       = errors.New("user input error")
	ErrIO              = errors.New("io error")
	ErrInternal        = errors.New("internal error")
	ErrOperationBlocked = errors.New("operation not allowed")
	ErrNotImplemented  = errors.New("reserved, not implemented")
)

// Code is the stable exit-code symbol from spec §6.1.
type Code string

const (
	CodeSuccess        Code = "success"
	CodeUserInput      Code = "user_input_error"
	CodeDocumentNotFound Code = "document_not_found"
	CodeConflict       Code = "conflict"
	CodeIO             Code = "io_error"
	CodeInternal       Code = "internal_error"
)

// Coder is implemented by every typed error so the dispatcher can map it to
// an exit code without a type switch over every variant.
type Coder interface {
	error
	Code() Code
}

// DocumentNotFoundError reports a missing document by Lattice ID.
type DocumentNotFoundError struct {
	ID string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.ID)
}

func (e *DocumentNotFoundError) Unwrap() error { return ErrNotFound }
func (e *DocumentNotFoundError) Code() Code     { return CodeDocumentNotFound }

// DependencyNotFoundError reports a missing blocks/blocked-by edge.
type DependencyNotFoundError struct {
	SourceID string
	TargetID string
}

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("dependency not found: %s does not depend on %s", e.SourceID, e.TargetID)
}

func (e *DependencyNotFoundError) Unwrap() error { return ErrNotFound }
func (e *DependencyNotFoundError) Code() Code     { return CodeDocumentNotFound }

// ClaimNotFoundError reports a missing claim file.
type ClaimNotFoundError struct {
	ID string
}

func (e *ClaimNotFoundError) Error() string     { return fmt.Sprintf("claim not found: %s", e.ID) }
func (e *ClaimNotFoundError) Unwrap() error      { return ErrNotFound }
func (e *ClaimNotFoundError) Code() Code          { return CodeDocumentNotFound }

// CircularDependencyError carries the cycle for display, per spec §7/§8.
type CircularDependencyError struct {
	Cycle       []string
	InvolvedIDs []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", formatCycle(e.Cycle))
}

func (e *CircularDependencyError) Unwrap() error { return ErrConflict }
func (e *CircularDependencyError) Code() Code     { return CodeConflict }

func formatCycle(path []string) string {
	out := ""
	for i, id := range path {
		if i > 0 {
			out += " → "
		}
		out += id
	}
	return out
}

// ClaimConflictError reports that a claim is already held by someone else.
type ClaimConflictError struct {
	ID               string
	ExistingWorktree string
}

func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("claim conflict on %s: already held at %s", e.ID, e.ExistingWorktree)
}

func (e *ClaimConflictError) Unwrap() error { return ErrConflict }
func (e *ClaimConflictError) Code() Code     { return CodeConflict }

// ReadError wraps a filesystem read failure.
type ReadError struct {
	Path   string
	Reason error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Reason) }
func (e *ReadError) Unwrap() error  { return ErrIO }
func (e *ReadError) Code() Code      { return CodeIO }

// WriteError wraps a filesystem write failure.
type WriteError struct {
	Path   string
	Reason error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Reason) }
func (e *WriteError) Unwrap() error  { return ErrIO }
func (e *WriteError) Code() Code      { return CodeIO }

// GitError wraps a failed git-operations call.
type GitError struct {
	Operation string
	Reason    error
}

func (e *GitError) Error() string { return fmt.Sprintf("git %s: %v", e.Operation, e.Reason) }
func (e *GitError) Unwrap() error  { return ErrIO }
func (e *GitError) Code() Code      { return CodeIO }

// DatabaseError wraps an index-store failure. Treated as internal per §7.
type DatabaseError struct {
	Reason error
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("database error: %v", e.Reason) }
func (e *DatabaseError) Unwrap() error  { return ErrInternal }
func (e *DatabaseError) Code() Code      { return CodeInternal }

// OperationNotAllowedError is a semantic refusal (e.g. prune without --force).
type OperationNotAllowedError struct {
	Reason string
}

func (e *OperationNotAllowedError) Error() string { return e.Reason }
func (e *OperationNotAllowedError) Unwrap() error  { return ErrOperationBlocked }
func (e *OperationNotAllowedError) Code() Code      { return CodeConflict }

// MalformedIDError reports a Lattice ID that failed to parse.
type MalformedIDError struct {
	Raw    string
	Reason string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed lattice id %q: %s", e.Raw, e.Reason)
}

func (e *MalformedIDError) Unwrap() error { return ErrUserInput }
func (e *MalformedIDError) Code() Code     { return CodeUserInput }

// UserInputError is a catch-all for missing/conflicting CLI arguments.
type UserInputError struct {
	Reason string
}

func (e *UserInputError) Error() string { return e.Reason }
func (e *UserInputError) Unwrap() error  { return ErrUserInput }
func (e *UserInputError) Code() Code      { return CodeUserInput }

// WrapDBError converts sql.ErrNoRows into ErrNotFound and everything else
// into a DatabaseError, matching the teacher's wrapDBError convention.
// Errors that already wrap ErrNotFound are returned unchanged.
func WrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &DatabaseError{Reason: fmt.Errorf("%s: %w", op, err)}
}

// IsNotFound reports whether err (or anything it wraps) is ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err (or anything it wraps) is ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
