package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"arc/internal/pathguard"
)

const maxReadBytes = 512 * 1024

// fileRead is a leaf tool that returns the content of one file inside the
// configured root.
type fileRead struct {
	guard *pathguard.Guard
}

// NewFileRead creates the file_read tool confined to root.
func NewFileRead(guard *pathguard.Guard) ToolExecutor {
	return &fileRead{guard: guard}
}

func (t *fileRead) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	filePath, ok := call.Arguments["file_path"].(string)
	if !ok || filePath == "" {
		return &ToolResult{CallID: call.ID, Error: fmt.Errorf("missing or invalid 'file_path'")}, nil
	}

	resolved, err := t.guard.Resolve(filePath)
	if err != nil {
		return &ToolResult{CallID: call.ID, Error: err}, nil
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return &ToolResult{CallID: call.ID, Error: fmt.Errorf("failed to read file: %w", err)}, nil
	}

	text := string(content)
	truncated := false
	if len(text) > maxReadBytes {
		text = text[:maxReadBytes]
		truncated = true
	}

	lineCount := len(strings.Split(text, "\n"))
	display := fmt.Sprintf("Read %s (%d lines)", filePath, lineCount)
	if truncated {
		display += " [truncated]"
	}

	return &ToolResult{
		CallID:  call.ID,
		Content: text,
		Display: display,
		Metadata: map[string]any{
			"file_path":   filePath,
			"lines_total": lineCount,
			"truncated":   truncated,
		},
	}, nil
}

func (t *fileRead) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "file_read",
		Description: "Read the content of a file inside the project root.",
		Parameters: ParameterSchema{
			Type: "object",
			Properties: map[string]Property{
				"file_path": {
					Type:        "string",
					Description: "The absolute path to the file to read",
				},
			},
			Required: []string{"file_path"},
		},
	}
}

func (t *fileRead) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:     "file_read",
		Version:  "1.0.0",
		Category: "file_operations",
		Tags:     []string{"file", "read"},
	}
}
