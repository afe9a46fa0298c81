package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// DefaultTool carries the name, description and schema shared by every
// tool. Tools embed it and supply Call.
type DefaultTool struct {
	name        string
	title       string
	description string
	schema      *jsonschema.Schema
	openWorld   bool
}

// NewDefaultTool creates a DefaultTool. A nil schema means the tool takes no
// arguments. openWorld marks tools that reach the network.
func NewDefaultTool(name, title, description string, schema *jsonschema.Schema, openWorld bool) DefaultTool {
	if schema == nil {
		schema = ObjectSchema(nil)
	}
	return DefaultTool{
		name:        name,
		title:       title,
		description: description,
		schema:      schema,
		openWorld:   openWorld,
	}
}

// Name returns the name of the tool.
func (t DefaultTool) Name() string {
	return t.name
}

// Definition returns the tool definition in MCP format.
func (t DefaultTool) Definition() Definition {
	return Definition{
		Name:        t.name,
		Title:       t.title,
		Description: t.description,
		InputSchema: t.schema,
		Annotations: &Annotations{
			Title:          t.title,
			ReadOnlyHint:   true,
			IdempotentHint: true,
			OpenWorldHint:  t.openWorld,
		},
	}
}

// Property is one named input parameter.
type Property struct {
	Name     string
	Schema   *jsonschema.Schema
	Required bool
}

// ObjectSchema builds the object schema for a tool's arguments.
func ObjectSchema(props []Property) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
	for _, p := range props {
		schema.Properties[p.Name] = p.Schema
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

// DecodeArgs unmarshals tool arguments into v. Empty or null arguments leave
// v untouched; unknown fields are ignored.
func DecodeArgs(args json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return &Error{Code: ErrInvalidArguments, Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return nil
}
