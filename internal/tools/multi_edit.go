package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"arc/internal/edit"
)

// multiEdit exposes the edit transaction engine as a registry tool, so a
// spawned agent can run batched edits with the same contract the main
// process uses.
type multiEdit struct {
	tx *edit.Transaction
}

// NewMultiEdit creates the multi_edit tool backed by tx.
func NewMultiEdit(tx *edit.Transaction) ToolExecutor {
	return &multiEdit{tx: tx}
}

func (t *multiEdit) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	rawEdits, ok := call.Arguments["edits"]
	if !ok {
		return &ToolResult{CallID: call.ID, Error: fmt.Errorf("missing 'edits'")}, nil
	}
	atomic := true
	if v, ok := call.Arguments["atomic"].(bool); ok {
		atomic = v
	}

	// Round-trip through JSON to convert the loosely typed argument list into
	// edit parameters.
	data, err := json.Marshal(rawEdits)
	if err != nil {
		return &ToolResult{CallID: call.ID, Error: fmt.Errorf("invalid 'edits': %w", err)}, nil
	}
	var edits []edit.SingleEditParams
	if err := json.Unmarshal(data, &edits); err != nil {
		return &ToolResult{CallID: call.ID, Error: fmt.Errorf("invalid 'edits': %w", err)}, nil
	}

	outcome, err := t.tx.Apply(edits, atomic)
	if err != nil {
		return &ToolResult{CallID: call.ID, Error: err}, nil
	}

	content := fmt.Sprintf("Applied %d/%d edits (%d failed)",
		outcome.SuccessfulEdits, outcome.TotalEdits, outcome.FailedEdits)
	if outcome.Conflicts.HasConflicts {
		content = fmt.Sprintf("Edit batch rejected: %d conflict(s), no files changed",
			len(outcome.Conflicts.Conflicts))
	}

	outcomeJSON, _ := json.Marshal(outcome)
	return &ToolResult{
		CallID:  call.ID,
		Content: content,
		Display: content,
		Metadata: map[string]any{
			"outcome": string(outcomeJSON),
			"atomic":  atomic,
		},
	}, nil
}

func (t *multiEdit) Definition() ToolDefinition {
	return ToolDefinition{
		Name: "multi_edit",
		Description: `Apply a batch of exact string replacements across files.

Each edit provides file_path (absolute), old_string, new_string and an
optional expected_replacements count (default 1). An empty old_string creates
a new file and fails if the file already exists. In atomic mode (default) the
batch is all-or-nothing: any failure rolls every file back.`,
		Parameters: ParameterSchema{
			Type: "object",
			Properties: map[string]Property{
				"edits": {
					Type:        "array",
					Description: "List of {file_path, old_string, new_string, expected_replacements} objects",
				},
				"atomic": {
					Type:        "boolean",
					Description: "All-or-nothing application (default true)",
				},
			},
			Required: []string{"edits"},
		},
	}
}

func (t *multiEdit) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:      "multi_edit",
		Version:   "1.0.0",
		Category:  "file_operations",
		Tags:      []string{"file", "edit", "transaction"},
		Dangerous: true,
	}
}
