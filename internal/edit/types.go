package edit

// SingleEditParams describes one text replacement in one file.
//
// An empty OldString is the sentinel for "create file": it is valid only when
// the target does not exist yet.
type SingleEditParams struct {
	FilePath             string `json:"file_path"`
	OldString            string `json:"old_string"`
	NewString            string `json:"new_string"`
	ExpectedReplacements int    `json:"expected_replacements,omitempty"`
}

// IsCreate reports whether the edit creates a new file.
func (p SingleEditParams) IsCreate() bool {
	return p.OldString == ""
}

// Replacements returns the effective expected replacement count (default 1).
func (p SingleEditParams) Replacements() int {
	if p.ExpectedReplacements == 0 {
		return 1
	}
	return p.ExpectedReplacements
}

// SingleEditResult is the immutable per-edit outcome.
type SingleEditResult struct {
	FilePath     string  `json:"file_path"`
	Success      bool    `json:"success"`
	Occurrences  int     `json:"occurrences"`
	Error        string  `json:"error,omitempty"`
	IsNewFile    bool    `json:"is_new_file"`
	PriorContent *string `json:"prior_content"`
	NewContent   string  `json:"new_content"`
}

// ConflictReason is the closed set of batch-level conflict classifications.
type ConflictReason string

const (
	ReasonOverlappingEdits    ConflictReason = "overlapping edit operations detected"
	ReasonMultipleCreates     ConflictReason = "multiple creation edits for the same file"
	ReasonCreateMixedWithEdit ConflictReason = "creation edit mixed with content edits"
)

// Conflict names a file, the indices of the offending edits within the batch,
// and the reason they cannot be applied together.
type Conflict struct {
	FilePath    string         `json:"file_path"`
	EditIndices []int          `json:"edit_indices"`
	Reason      ConflictReason `json:"reason"`
}

// ConflictDetectionResult is computed once per batch, before any mutation.
type ConflictDetectionResult struct {
	HasConflicts bool       `json:"has_conflicts"`
	Conflicts    []Conflict `json:"conflicts"`
}

// TransactionOutcome summarizes a whole batch application.
//
// If Conflicts.HasConflicts is true, SuccessfulEdits is zero and no file on
// disk was touched. In atomic mode any failure forces SuccessfulEdits to zero
// and every mutated file back to its pre-transaction content.
type TransactionOutcome struct {
	TotalEdits      int                     `json:"total_edits"`
	SuccessfulEdits int                     `json:"successful_edits"`
	FailedEdits     int                     `json:"failed_edits"`
	Conflicts       ConflictDetectionResult `json:"conflicts"`
	EditResults     []SingleEditResult      `json:"edit_results"`
}
