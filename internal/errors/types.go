package errors

import (
	"errors"
	"fmt"
	"time"
)

// The runtime distinguishes six failure classes. Validation and conflict
// errors are produced before any I/O; edit failures are scoped to a single
// edit; process, timeout and cancellation errors always mean the spawned
// child has already been signaled for termination.

// ValidationError reports bad caller parameters, rejected before any I/O or
// process spawn.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidation builds a ValidationError for the given field.
func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a batch-level conflict detected before mutation.
// The structured conflict list lives in the transaction outcome; the error
// carries the affected files for logging and wrapping.
type ConflictError struct {
	Files []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("edit batch has conflicts in %d file(s)", len(e.Files))
}

// EditFailureKind classifies per-edit failures.
type EditFailureKind int

const (
	EditNotFound EditFailureKind = iota
	EditOccurrenceMismatch
	EditCreateOnExisting
	EditWriteFailure
	EditRolledBack
	EditNotAttempted
)

// EditFailure is a per-file edit error.
type EditFailure struct {
	Path     string
	Kind     EditFailureKind
	Found    int // occurrences found, for EditOccurrenceMismatch
	Expected int // occurrences expected, for EditOccurrenceMismatch
	Err      error
}

func (e *EditFailure) Error() string {
	switch e.Kind {
	case EditNotFound:
		if e.Err != nil {
			return fmt.Sprintf("%v: %s", e.Err, e.Path)
		}
		return fmt.Sprintf("old_string not found in %s", e.Path)
	case EditOccurrenceMismatch:
		return fmt.Sprintf("found %d occurrence(s) of old_string in %s, expected %d", e.Found, e.Path, e.Expected)
	case EditCreateOnExisting:
		return fmt.Sprintf("file already exists: %s", e.Path)
	case EditWriteFailure:
		return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
	case EditRolledBack:
		return fmt.Sprintf("edit to %s rolled back: %v", e.Path, e.Err)
	case EditNotAttempted:
		return fmt.Sprintf("edit to %s not attempted: batch aborted", e.Path)
	default:
		return fmt.Sprintf("edit to %s failed: %v", e.Path, e.Err)
	}
}

func (e *EditFailure) Unwrap() error { return e.Err }

// ProcessError reports a subprocess lifecycle failure: spawn failure,
// unexpected signal, non-zero exit, or a malformed handshake.
type ProcessError struct {
	Stage    string // "spawn", "exit", "handshake", "pipe"
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Stage == "exit" {
		return fmt.Sprintf("agent process exited with code %d before completion", e.ExitCode)
	}
	return fmt.Sprintf("agent process %s failed: %v", e.Stage, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// TimeoutError reports that a session exceeded its configured timeout.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task timed out after %s", e.Limit)
}

// CancellationError reports that the caller cancelled the session.
type CancellationError struct {
	Err error
}

func (e *CancellationError) Error() string {
	return "task cancelled"
}

func (e *CancellationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var t *TimeoutError
	return errors.As(err, &t)
}

// IsCancellation reports whether err is a CancellationError.
func IsCancellation(err error) bool {
	var c *CancellationError
	return errors.As(err, &c)
}

// AsEditFailure extracts an EditFailure from err, if present.
func AsEditFailure(err error) (*EditFailure, bool) {
	var e *EditFailure
	ok := errors.As(err, &e)
	return e, ok
}
