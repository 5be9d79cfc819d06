package tools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arc/internal/cache"
)

func newTestCache() cache.Cache {
	return cache.NewLRU(16, time.Minute)
}

func TestCacheExecutorCachesSuccessfulResults(t *testing.T) {
	tool := &fakeTool{name: "reader"}
	cached := NewCacheExecutor(tool, newTestCache(), nil)

	args := map[string]any{"file_path": "/a.txt"}
	first, err := cached.Execute(context.Background(), ToolCall{ID: "c1", Name: "reader", Arguments: args})
	require.NoError(t, err)

	second, err := cached.Execute(context.Background(), ToolCall{ID: "c2", Name: "reader", Arguments: args})
	require.NoError(t, err)

	assert.Equal(t, 1, tool.calls, "second call should be served from cache")
	assert.Equal(t, first.Content, second.Content)
	// The cached copy carries the current call's ID, not the original one.
	assert.Equal(t, "c2", second.CallID)
}

func TestCacheExecutorKeyIsOrderInsensitive(t *testing.T) {
	tool := &fakeTool{name: "reader"}
	cached := NewCacheExecutor(tool, newTestCache(), nil)

	_, err := cached.Execute(context.Background(), ToolCall{Name: "reader", Arguments: map[string]any{
		"a": 1, "b": map[string]any{"x": 1, "y": 2},
	}})
	require.NoError(t, err)
	_, err = cached.Execute(context.Background(), ToolCall{Name: "reader", Arguments: map[string]any{
		"b": map[string]any{"y": 2, "x": 1}, "a": 1,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, tool.calls)
}

func TestCacheExecutorDistinctArgsMiss(t *testing.T) {
	tool := &fakeTool{name: "reader"}
	cached := NewCacheExecutor(tool, newTestCache(), nil)

	_, _ = cached.Execute(context.Background(), ToolCall{Name: "reader", Arguments: map[string]any{"p": "1"}})
	_, _ = cached.Execute(context.Background(), ToolCall{Name: "reader", Arguments: map[string]any{"p": "2"}})
	assert.Equal(t, 2, tool.calls)
}

func TestCacheExecutorSkipsDangerousTools(t *testing.T) {
	tool := &fakeTool{name: "editor", dangerous: true}
	cached := NewCacheExecutor(tool, newTestCache(), nil)

	args := map[string]any{"edit": "x"}
	_, _ = cached.Execute(context.Background(), ToolCall{Name: "editor", Arguments: args})
	_, _ = cached.Execute(context.Background(), ToolCall{Name: "editor", Arguments: args})
	assert.Equal(t, 2, tool.calls)
}

func TestCacheExecutorSkipsExcludedTools(t *testing.T) {
	tool := &fakeTool{name: "reader"}
	cached := NewCacheExecutor(tool, newTestCache(), []string{"reader"})

	_, _ = cached.Execute(context.Background(), ToolCall{Name: "reader"})
	_, _ = cached.Execute(context.Background(), ToolCall{Name: "reader"})
	assert.Equal(t, 2, tool.calls)
}

func TestCacheExecutorDoesNotCacheErrors(t *testing.T) {
	failures := 0
	tool := &fakeTool{
		name: "flaky",
		execute: func(ctx context.Context, call ToolCall) (*ToolResult, error) {
			failures++
			if failures == 1 {
				return &ToolResult{CallID: call.ID, Error: fmt.Errorf("transient")}, nil
			}
			return &ToolResult{CallID: call.ID, Content: "recovered"}, nil
		},
	}
	cached := NewCacheExecutor(tool, newTestCache(), nil)

	first, err := cached.Execute(context.Background(), ToolCall{Name: "flaky"})
	require.NoError(t, err)
	require.Error(t, first.Error)

	second, err := cached.Execute(context.Background(), ToolCall{Name: "flaky"})
	require.NoError(t, err)
	assert.NoError(t, second.Error)
	assert.Equal(t, "recovered", second.Content)
}

func TestCacheExecutorNilStorePassesThrough(t *testing.T) {
	tool := &fakeTool{name: "reader"}
	assert.Same(t, ToolExecutor(tool), NewCacheExecutor(tool, nil, nil))
}
