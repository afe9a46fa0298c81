package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"yc-mcp-go/internal/directory"
)

// Caller executes a tool by name. Registry implements it, and so do the
// wrappers that decorate a registry.
type Caller interface {
	Call(ctx context.Context, toolName string, args json.RawMessage) (directory.Envelope, error)
}

// Registry manages the collection of available tools. It is built once at
// startup and handed to the transports.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Registering the same name twice is an error.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("tool %q already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List returns the definitions of all registered tools, sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Call executes a tool with the given arguments and context.
func (r *Registry) Call(ctx context.Context, toolName string, args json.RawMessage) (directory.Envelope, error) {
	tool, exists := r.Get(toolName)
	if !exists {
		return nil, &Error{Code: ErrToolNotFound, Message: fmt.Sprintf("Tool not found: %s", toolName)}
	}

	return tool.Call(ctx, args)
}

// Error codes for tool execution.
const (
	ErrToolNotFound     = "tool_not_found"
	ErrInvalidArguments = "invalid_arguments"
)

// Error represents a tool execution error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
