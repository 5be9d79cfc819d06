package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arc/internal/pathguard"
)

func newFileReadTool(t *testing.T) (ToolExecutor, string) {
	t.Helper()
	guard, err := pathguard.New(t.TempDir())
	require.NoError(t, err)
	return NewFileRead(guard), guard.Root()
}

func TestFileReadReturnsContent(t *testing.T) {
	tool, root := newFileReadTool(t)
	path := filepath.Join(root, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0644))

	result, err := tool.Execute(context.Background(), ToolCall{
		ID:        "c1",
		Name:      "file_read",
		Arguments: map[string]any{"file_path": path},
	})
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, "line one\nline two\n", result.Content)
	assert.Contains(t, result.Display, "hello.txt")
	assert.Equal(t, false, result.Metadata["truncated"])
}

func TestFileReadMissingArgument(t *testing.T) {
	tool, _ := newFileReadTool(t)
	result, err := tool.Execute(context.Background(), ToolCall{Name: "file_read"})
	require.NoError(t, err)
	assert.ErrorContains(t, result.Error, "file_path")
}

func TestFileReadRejectsEscape(t *testing.T) {
	tool, _ := newFileReadTool(t)
	result, err := tool.Execute(context.Background(), ToolCall{
		Name:      "file_read",
		Arguments: map[string]any{"file_path": "/etc/passwd"},
	})
	require.NoError(t, err)
	assert.Error(t, result.Error)
}

func TestFileReadMissingFile(t *testing.T) {
	tool, root := newFileReadTool(t)
	result, err := tool.Execute(context.Background(), ToolCall{
		Name:      "file_read",
		Arguments: map[string]any{"file_path": filepath.Join(root, "ghost.txt")},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, result.Error, "failed to read")
}

func TestFileReadNotDangerous(t *testing.T) {
	tool, _ := newFileReadTool(t)
	assert.False(t, tool.Metadata().Dangerous)
	assert.Equal(t, "file_read", tool.Definition().Name)
}
