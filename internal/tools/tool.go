package tools

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"yc-mcp-go/internal/directory"
)

// Tool is the interface that all tools must implement.
type Tool interface {
	// Name returns the name of the tool.
	Name() string

	// Definition describes the tool for tools/list.
	Definition() Definition

	// Call executes the tool with JSON-encoded arguments. Directory failures
	// come back inside the envelope; the error return is reserved for
	// arguments that cannot be decoded.
	Call(ctx context.Context, args json.RawMessage) (directory.Envelope, error)
}

// Definition is a tool as advertised to MCP clients.
type Definition struct {
	Name        string             `json:"name"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
	Annotations *Annotations       `json:"annotations,omitempty"`
}

// Annotations are behavioural hints for clients.
type Annotations struct {
	Title          string `json:"title,omitempty"`
	ReadOnlyHint   bool   `json:"readOnlyHint"`
	IdempotentHint bool   `json:"idempotentHint"`
	OpenWorldHint  bool   `json:"openWorldHint"`
}
