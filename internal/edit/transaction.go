package edit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	arcerrors "arc/internal/errors"
	"arc/internal/logging"
	"arc/internal/pathguard"
)

// MaxBatchSize caps the number of edits accepted in one transaction.
const MaxBatchSize = 100

// Transaction applies a batch of text replacements across files with conflict
// detection, in-memory backup and all-or-nothing rollback.
//
// Rollback is best-effort: backups live only in memory for the duration of
// Apply, so a rollback that itself fails leaves the filesystem partially
// mutated with a logged warning. Cross-transaction locking is the caller's
// responsibility.
type Transaction struct {
	guard  *pathguard.Guard
	logger logging.Logger
}

// NewTransaction creates a transaction engine confined to root.
func NewTransaction(root string, logger logging.Logger) (*Transaction, error) {
	guard, err := pathguard.New(root)
	if err != nil {
		return nil, err
	}
	return &Transaction{guard: guard, logger: logging.OrNop(logger)}, nil
}

// Apply runs the batch. Validation failures are returned as an error before
// any I/O. Conflicts and per-edit failures are expected outcomes and are
// reported through the returned TransactionOutcome, never as an error.
//
// In atomic mode any single failure rolls back every file mutated during this
// run and the outcome reports zero successful edits. In non-atomic mode each
// edit succeeds or fails independently.
func (t *Transaction) Apply(edits []SingleEditParams, atomic bool) (*TransactionOutcome, error) {
	resolved, err := t.validate(edits)
	if err != nil {
		return nil, err
	}

	outcome := &TransactionOutcome{
		TotalEdits:  len(edits),
		EditResults: make([]SingleEditResult, len(edits)),
	}

	outcome.Conflicts = DetectConflicts(edits)
	if outcome.Conflicts.HasConflicts {
		for i, e := range edits {
			outcome.EditResults[i] = SingleEditResult{
				FilePath: e.FilePath,
				Error:    "batch has conflicts, no edits applied",
			}
		}
		outcome.FailedEdits = len(edits)
		return outcome, nil
	}

	run := &transactionRun{
		tx:       t,
		edits:    edits,
		resolved: resolved,
		atomic:   atomic,
		content:  make(map[string]string),
		exists:   make(map[string]bool),
	}

	if atomic {
		if err := run.snapshot(); err != nil {
			return nil, err
		}
	}

	run.execute(outcome)
	return outcome, nil
}

// validate enforces all preconditions before any I/O: non-empty batch, batch
// cap, absolute confined paths and sane replacement counts.
func (t *Transaction) validate(edits []SingleEditParams) ([]string, error) {
	if len(edits) == 0 {
		return nil, arcerrors.NewValidation("edits", "batch must not be empty")
	}
	if len(edits) > MaxBatchSize {
		return nil, arcerrors.NewValidation("edits", "batch size %d exceeds cap of %d", len(edits), MaxBatchSize)
	}

	resolved := make([]string, len(edits))
	for i, e := range edits {
		if e.ExpectedReplacements < 0 {
			return nil, arcerrors.NewValidation("expected_replacements", "must be >= 1 when specified")
		}
		path, err := t.guard.Resolve(e.FilePath)
		if err != nil {
			return nil, arcerrors.NewValidation("file_path", "%v", err)
		}
		resolved[i] = path
	}
	return resolved, nil
}

// transactionRun holds the mutable state of one Apply call. It is owned
// exclusively by that call for its lifetime.
type transactionRun struct {
	tx       *Transaction
	edits    []SingleEditParams
	resolved []string
	atomic   bool

	content map[string]string // normalized in-memory content per resolved path
	exists  map[string]bool   // whether the file currently exists (disk or batch)
	backups map[string][]byte // raw pre-transaction content; nil entry = absent
	mutated []string          // resolved paths written this run, in write order
	created map[string]bool   // files first created by this run
}

// snapshot reads and retains the full pre-transaction content of every
// distinct existing file touched by the batch, before any write.
func (r *transactionRun) snapshot() error {
	r.backups = make(map[string][]byte)
	r.created = make(map[string]bool)
	for _, path := range r.resolved {
		if _, done := r.backups[path]; done {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				r.backups[path] = nil
				continue
			}
			return fmt.Errorf("snapshot %s: %w", path, err)
		}
		r.backups[path] = raw
	}
	return nil
}

func (r *transactionRun) execute(outcome *TransactionOutcome) {
	for i, e := range r.edits {
		result, err := r.applyOne(i, e)
		outcome.EditResults[i] = result
		if err == nil {
			outcome.SuccessfulEdits++
			continue
		}
		outcome.FailedEdits++

		if !r.atomic {
			continue
		}

		// Atomic mode: stop immediately, undo this run, report all-failed.
		r.rollback()
		for j := range outcome.EditResults {
			if j == i {
				continue
			}
			if j < i {
				outcome.EditResults[j].Success = false
				outcome.EditResults[j].Error = (&arcerrors.EditFailure{
					Path: r.edits[j].FilePath,
					Kind: arcerrors.EditRolledBack,
					Err:  err,
				}).Error()
			} else {
				outcome.EditResults[j] = SingleEditResult{
					FilePath: r.edits[j].FilePath,
					Error: (&arcerrors.EditFailure{
						Path: r.edits[j].FilePath,
						Kind: arcerrors.EditNotAttempted,
					}).Error(),
				}
			}
		}
		outcome.SuccessfulEdits = 0
		outcome.FailedEdits = len(r.edits)
		return
	}
}

func (r *transactionRun) applyOne(index int, e SingleEditParams) (SingleEditResult, error) {
	path := r.resolved[index]
	result := SingleEditResult{FilePath: e.FilePath}

	if e.IsCreate() {
		if r.fileExists(path) {
			failure := &arcerrors.EditFailure{Path: e.FilePath, Kind: arcerrors.EditCreateOnExisting}
			result.Error = failure.Error()
			return result, failure
		}
		content := NormalizeLineEndings(e.NewString)
		if err := r.persist(path, content); err != nil {
			result.Error = err.Error()
			return result, err
		}
		r.content[path] = content
		r.exists[path] = true
		if r.created != nil {
			r.created[path] = true
		}
		result.Success = true
		result.IsNewFile = true
		result.NewContent = content
		return result, nil
	}

	current, err := r.load(path, e.FilePath)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	updated, occurrences, err := ApplyReplacement(e.FilePath, current, e)
	result.Occurrences = occurrences
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	if err := r.persist(path, updated); err != nil {
		result.Error = err.Error()
		return result, err
	}
	r.content[path] = updated

	prior := current
	result.Success = true
	result.PriorContent = &prior
	result.NewContent = updated
	return result, nil
}

// load returns the file's current in-memory content: edits earlier in the
// batch that touched the same file are already reflected in it.
func (r *transactionRun) load(path, display string) (string, error) {
	if content, ok := r.content[path]; ok {
		return content, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &arcerrors.EditFailure{
				Path: display,
				Kind: arcerrors.EditNotFound,
				Err:  errors.New("file does not exist"),
			}
		}
		return "", &arcerrors.EditFailure{Path: display, Kind: arcerrors.EditWriteFailure, Err: err}
	}
	content := NormalizeLineEndings(string(raw))
	r.content[path] = content
	r.exists[path] = true
	return content, nil
}

func (r *transactionRun) fileExists(path string) bool {
	if exists, ok := r.exists[path]; ok {
		return exists
	}
	_, err := os.Stat(path)
	exists := err == nil
	r.exists[path] = exists
	return exists
}

// persist writes the whole file, creating parent directories as needed.
func (r *transactionRun) persist(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &arcerrors.EditFailure{Path: path, Kind: arcerrors.EditWriteFailure, Err: err}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &arcerrors.EditFailure{Path: path, Kind: arcerrors.EditWriteFailure, Err: err}
	}
	r.mutated = append(r.mutated, path)
	return nil
}

// rollback restores every file mutated during this run to its pre-transaction
// content, or deletes it if this run created it. Failures are logged and do
// not mask the original edit failure.
func (r *transactionRun) rollback() {
	for i := len(r.mutated) - 1; i >= 0; i-- {
		path := r.mutated[i]
		backup := r.backups[path]
		if backup == nil {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				r.tx.logger.Warn("rollback: failed to remove created file %s: %v", path, err)
			}
			continue
		}
		if err := os.WriteFile(path, backup, 0644); err != nil {
			r.tx.logger.Warn("rollback: failed to restore %s: %v", path, err)
		}
	}
}
