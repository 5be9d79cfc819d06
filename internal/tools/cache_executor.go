package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"arc/internal/cache"
)

// cachedResult is what the caching decorator stores per call key.
type cachedResult struct {
	content  string
	display  string
	metadata map[string]any
}

// cacheExecutor is a ToolExecutor wrapper that caches tool results keyed by
// (toolName + normalised arguments). The cache handle is injected; nothing
// here owns ambient global state.
type cacheExecutor struct {
	delegate ToolExecutor
	store    cache.Cache
	exclude  map[string]bool
}

// NewCacheExecutor wraps delegate with a result cache. Tools marked Dangerous
// and tools named in excludeTools are never cached.
func NewCacheExecutor(delegate ToolExecutor, store cache.Cache, excludeTools []string) ToolExecutor {
	if delegate == nil || store == nil {
		return delegate
	}
	exclude := make(map[string]bool, len(excludeTools))
	for _, name := range excludeTools {
		exclude[strings.TrimSpace(name)] = true
	}
	return &cacheExecutor{delegate: delegate, store: store, exclude: exclude}
}

func (c *cacheExecutor) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	if c.shouldSkip(call) {
		return c.delegate.Execute(ctx, call)
	}

	key := c.cacheKey(call)
	if value, ok := c.store.Get(key); ok {
		if entry, ok := value.(cachedResult); ok {
			// Cache hit: return a copy with the current call's ID.
			return &ToolResult{
				CallID:   call.ID,
				Content:  entry.content,
				Display:  entry.display,
				Metadata: cloneMetadata(entry.metadata),
			}, nil
		}
	}

	result, err := c.delegate.Execute(ctx, call)
	if err != nil {
		return result, err
	}
	// Do not cache error results.
	if result != nil && result.Error == nil {
		c.store.Set(key, cachedResult{
			content:  result.Content,
			display:  result.Display,
			metadata: cloneMetadata(result.Metadata),
		})
	}
	return result, nil
}

func (c *cacheExecutor) Definition() ToolDefinition {
	return c.delegate.Definition()
}

func (c *cacheExecutor) Metadata() ToolMetadata {
	return c.delegate.Metadata()
}

func (c *cacheExecutor) shouldSkip(call ToolCall) bool {
	name := strings.TrimSpace(call.Name)
	if name == "" {
		name = strings.TrimSpace(c.delegate.Metadata().Name)
	}
	if c.exclude[name] {
		return true
	}
	return c.delegate.Metadata().Dangerous
}

func (c *cacheExecutor) cacheKey(call ToolCall) string {
	name := strings.TrimSpace(call.Name)
	if name == "" {
		name = strings.TrimSpace(c.delegate.Metadata().Name)
	}
	return fmt.Sprintf("%s:%s", name, normalizeArgs(call.Arguments))
}

// normalizeArgs serialises a map[string]any into a deterministic JSON string
// by sorting keys at every level.
func normalizeArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(sortedMap(args))
	if err != nil {
		return "{}"
	}
	return string(data)
}

// sortedMap returns a representation of m that json.Marshal will serialise
// with keys in sorted order (nested maps are converted to the same concrete
// type; json.Marshal sorts map keys itself).
func sortedMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			v = sortedMap(nested)
		}
		out[k] = v
	}
	return out
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

var _ ToolExecutor = (*cacheExecutor)(nil)
