package edit

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	arcerrors "arc/internal/errors"
)

// DiffGenerator renders unified diffs for human review.
type DiffGenerator struct {
	colorEnabled bool
}

// NewDiffGenerator creates a diff generator.
func NewDiffGenerator(colorEnabled bool) *DiffGenerator {
	return &DiffGenerator{colorEnabled: colorEnabled}
}

// FilePreview pairs a file path with its consolidated unified diff.
type FilePreview struct {
	FilePath string
	Diff     string
	IsNew    bool
}

// PreviewDiffs produces one consolidated, human-reviewable diff per file for
// the whole batch, so an approval layer can accept or reject it before
// anything is mutated. It is read-only: edits are simulated in memory and the
// filesystem is never written.
//
// The same validation, conflict detection and replacement semantics as Apply
// are used, so a batch that previews cleanly will apply cleanly against
// unchanged files.
func (t *Transaction) PreviewDiffs(edits []SingleEditParams, gen *DiffGenerator) ([]FilePreview, error) {
	resolved, err := t.validate(edits)
	if err != nil {
		return nil, err
	}
	if result := DetectConflicts(edits); result.HasConflicts {
		files := make([]string, 0, len(result.Conflicts))
		for _, c := range result.Conflicts {
			files = append(files, c.FilePath)
		}
		return nil, &arcerrors.ConflictError{Files: files}
	}
	if gen == nil {
		gen = NewDiffGenerator(false)
	}

	original := make(map[string]string)
	current := make(map[string]string)
	isNew := make(map[string]bool)
	display := make(map[string]string)
	var order []string

	for i, e := range edits {
		path := resolved[i]
		content, tracked := current[path]
		if !tracked {
			raw, err := os.ReadFile(path)
			switch {
			case err == nil:
				content = NormalizeLineEndings(string(raw))
			case os.IsNotExist(err):
				isNew[path] = true
			default:
				return nil, fmt.Errorf("read %s: %w", e.FilePath, err)
			}
			original[path] = content
			display[path] = e.FilePath
			order = append(order, path)
		}

		if e.IsCreate() {
			if tracked || !isNew[path] {
				failure := &arcerrors.EditFailure{Path: e.FilePath, Kind: arcerrors.EditCreateOnExisting}
				return nil, failure
			}
			current[path] = NormalizeLineEndings(e.NewString)
			continue
		}
		if isNew[path] {
			return nil, &arcerrors.EditFailure{
				Path: e.FilePath,
				Kind: arcerrors.EditNotFound,
				Err:  fmt.Errorf("file does not exist"),
			}
		}
		updated, _, err := ApplyReplacement(e.FilePath, content, e)
		if err != nil {
			return nil, err
		}
		current[path] = updated
	}

	// One consolidated diff per file, in first-touch order.
	previews := make([]FilePreview, 0, len(order))
	for _, path := range order {
		previews = append(previews, FilePreview{
			FilePath: display[path],
			Diff:     gen.Unified(original[path], current[path], display[path]),
			IsNew:    isNew[path],
		})
	}
	return previews, nil
}

// Unified creates a unified diff between old and new content.
func (g *DiffGenerator) Unified(oldContent, newContent, filename string) string {
	if oldContent == newContent {
		return ""
	}

	// Skip diff body for very large files.
	maxSize := 10 * 1024 * 1024
	if len(oldContent) > maxSize || len(newContent) > maxSize {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n@@ Large file (>10MB), diff skipped @@\n", filename, filename)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	patches := dmp.PatchMake(oldContent, diffs)
	patchText := dmp.PatchToText(patches)
	if patchText == "" {
		return ""
	}

	var result strings.Builder
	result.WriteString(g.colorize("--- a/"+filename+"\n", color.FgRed))
	result.WriteString(g.colorize("+++ b/"+filename+"\n", color.FgGreen))
	for _, line := range strings.Split(patchText, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			result.WriteString(g.colorize(line+"\n", color.FgCyan))
		case strings.HasPrefix(line, "+"):
			result.WriteString(g.colorize(line+"\n", color.FgGreen))
		case strings.HasPrefix(line, "-"):
			result.WriteString(g.colorize(line+"\n", color.FgRed))
		case line != "":
			result.WriteString(line + "\n")
		}
	}
	return result.String()
}

func (g *DiffGenerator) colorize(text string, attr color.Attribute) string {
	if !g.colorEnabled {
		return text
	}
	return color.New(attr).Sprint(text)
}
