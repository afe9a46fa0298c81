// Package mcp serves the tool registry over the Model Context Protocol.
package mcp

import (
	"encoding/json"
	"slices"

	"yc-mcp-go/internal/tools"
)

// Protocol revisions this server speaks, oldest first.
var SupportedVersions = []string{"2024-11-05", "2025-03-26", "2025-06-18"}

// LatestVersion is offered to clients asking for a revision we don't know.
var LatestVersion = SupportedVersions[len(SupportedVersions)-1]

// NegotiateVersion echoes the client's version when supported.
func NegotiateVersion(requested string) string {
	if slices.Contains(SupportedVersions, requested) {
		return requested
	}
	return LatestVersion
}

// Implementation names a client or server.
type Implementation struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
	ClientInfo      Implementation  `json:"clientInfo"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type ListToolsResult struct {
	Tools []tools.Definition `json:"tools"`
}

type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult carries a tool's envelope both as text, for clients that
// only read content, and as structured content.
type CallToolResult struct {
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
