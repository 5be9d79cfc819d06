package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ToolExecutor executes a single tool call
type ToolExecutor interface {
	// Execute runs the tool with given arguments
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)

	// Definition returns the tool's schema
	Definition() ToolDefinition

	// Metadata returns tool metadata
	Metadata() ToolMetadata
}

// ToolCall represents a request to execute a tool
type ToolCall struct {
	ID                string         `json:"call_id"`
	Name              string         `json:"name"`
	Arguments         map[string]any `json:"args"`
	IsClientInitiated bool           `json:"is_client_initiated,omitempty"`
	PromptID          string         `json:"prompt_id,omitempty"`
}

// ToolResult is the execution result. Expected tool failures travel in the
// Error field of a non-nil result; a non-nil error from Execute means the
// call itself could not run.
type ToolResult struct {
	CallID   string         `json:"call_id"`
	Content  string         `json:"llm_content"`
	Display  string         `json:"result_display,omitempty"`
	Error    error          `json:"-"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ToolDefinition describes a tool's callable schema
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ToolMetadata contains tool information
type ToolMetadata struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Dangerous bool     `json:"dangerous"`
}

// ParameterSchema defines tool parameters (JSON Schema format)
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Registry manages available tools
type Registry interface {
	// Register adds a tool to the registry
	Register(tool ToolExecutor) error

	// Get retrieves a tool by name
	Get(name string) (ToolExecutor, error)

	// List returns all available tool definitions
	List() []ToolDefinition

	// Unregister removes a tool
	Unregister(name string) error
}

type registry struct {
	mu    sync.RWMutex
	tools map[string]ToolExecutor
}

// NewRegistry creates an empty tool registry.
func NewRegistry() Registry {
	return &registry{tools: make(map[string]ToolExecutor)}
}

func (r *registry) Register(tool ToolExecutor) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}
	name := tool.Definition().Name
	if name == "" {
		return fmt.Errorf("cannot register tool with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = tool
	return nil
}

func (r *registry) Get(name string) (ToolExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

func (r *registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (r *registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return fmt.Errorf("tool not found: %s", name)
	}
	delete(r.tools, name)
	return nil
}

// ExecuteToolCall is the uniform entry point for invoking any registered
// tool. A missing tool or a tool-reported failure is returned inside the
// result; a non-nil error is reserved for unexpected conditions.
func ExecuteToolCall(ctx context.Context, reg Registry, call ToolCall) (*ToolResult, error) {
	tool, err := reg.Get(call.Name)
	if err != nil {
		return &ToolResult{CallID: call.ID, Error: err}, nil
	}
	result, err := tool.Execute(ctx, call)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &ToolResult{CallID: call.ID}, nil
	}
	if result.CallID == "" {
		result.CallID = call.ID
	}
	return result, nil
}
