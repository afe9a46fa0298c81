package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"yc-mcp-go/internal/jsonrpc"
	"yc-mcp-go/internal/session"
	"yc-mcp-go/internal/tools"
)

// MCP methods handled by this server.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodCancelled   = "notifications/cancelled"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

const instructions = "Read-only access to the public YC company directory. " +
	"Batch names are matched case-insensitively; list_companies_by_batch expects the " +
	"short batch code (for example W21)."

// Handler answers MCP requests from any transport.
type Handler struct {
	registry *tools.Registry
	caller   tools.Caller
	info     Implementation
	logger   zerolog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCaller routes tools/call through c instead of the registry, so the
// registry can be decorated.
func WithCaller(c tools.Caller) HandlerOption {
	return func(h *Handler) {
		h.caller = c
	}
}

// NewHandler creates a handler serving the tools in registry.
func NewHandler(registry *tools.Registry, info Implementation, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: registry,
		caller:   registry,
		info:     info,
		logger:   logger.With().Str("component", "mcp_handler").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleMessage parses one raw frame and dispatches it. It returns nil when
// no response is due.
func (h *Handler) HandleMessage(ctx context.Context, data []byte) *jsonrpc.Response {
	msg, err := jsonrpc.ParseMessage(data)
	if err != nil {
		return jsonrpc.NewErrorResponse(nil, asRPCError(err))
	}
	return h.Handle(ctx, msg)
}

// Handle dispatches a parsed message. Notifications and stray responses
// produce no reply.
func (h *Handler) Handle(ctx context.Context, msg any) *jsonrpc.Response {
	switch m := msg.(type) {
	case *jsonrpc.Request:
		return h.handleRequest(ctx, m)
	case *jsonrpc.Notification:
		h.handleNotification(m)
		return nil
	case *jsonrpc.Response:
		h.logger.Debug().Interface("id", m.ID).Msg("Ignoring response from client")
		return nil
	default:
		return jsonrpc.NewErrorResponse(nil, jsonrpc.NewError(jsonrpc.InvalidRequest, "Invalid message", nil))
	}
}

func (h *Handler) handleRequest(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	h.logger.Debug().
		Interface("id", req.ID).
		Str("method", req.Method).
		Msg("Handling request")

	var (
		result any
		rpcErr *jsonrpc.Error
	)
	switch req.Method {
	case MethodInitialize:
		result, rpcErr = h.initialize(req.Params)
	case MethodPing:
		result = struct{}{}
	case MethodToolsList:
		result = ListToolsResult{Tools: h.registry.List()}
	case MethodToolsCall:
		result, rpcErr = h.callTool(ctx, req.Params)
	default:
		rpcErr = jsonrpc.NewError(jsonrpc.MethodNotFound, "Method not found", req.Method)
	}

	if rpcErr != nil {
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}
	return jsonrpc.NewResponse(req.ID, result)
}

func (h *Handler) handleNotification(n *jsonrpc.Notification) {
	switch n.Method {
	case MethodInitialized:
		h.logger.Info().Msg("Client initialized")
	case MethodCancelled:
		h.logger.Debug().RawJSON("params", rawOrNull(n.Params)).Msg("Client cancelled a request")
	default:
		h.logger.Debug().Str("method", n.Method).Msg("Ignoring unknown notification")
	}
}

func (h *Handler) initialize(params json.RawMessage) (*InitializeResult, *jsonrpc.Error) {
	p, err := ParseInitializeParams(params)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Invalid initialize params", err.Error())
	}

	version := NegotiateVersion(p.ProtocolVersion)
	h.logger.Info().
		Str("client", p.ClientInfo.Name).
		Str("client_version", p.ClientInfo.Version).
		Str("requested_version", p.ProtocolVersion).
		Str("protocol_version", version).
		Msg("Initializing session")

	return &InitializeResult{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ServerInfo:   h.info,
		Instructions: instructions,
	}, nil
}

// ParseInitializeParams decodes initialize params. Absent params are
// treated as an empty object.
func ParseInitializeParams(params json.RawMessage) (InitializeParams, error) {
	var p InitializeParams
	if len(params) == 0 || string(params) == "null" {
		return p, nil
	}
	err := json.Unmarshal(params, &p)
	return p, err
}

func (h *Handler) callTool(ctx context.Context, params json.RawMessage) (*CallToolResult, *jsonrpc.Error) {
	var p CallToolParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Invalid tools/call params", err.Error())
		}
	}
	if p.Name == "" {
		return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Missing tool name", nil)
	}

	start := time.Now()
	env, err := h.caller.Call(ctx, p.Name, p.Arguments)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("tool", p.Name).
			Msg("Tool call rejected")
		return nil, toolCallError(err)
	}

	text, err := json.Marshal(env)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("tool", p.Name).
			Msg("Failed to encode tool result")
		return nil, jsonrpc.NewError(jsonrpc.InternalError, "Failed to encode tool result", err.Error())
	}

	event := h.logger.Info()
	if msg, failed := env.Err(); failed {
		event = h.logger.Warn().Str("error", msg)
	}
	if sess, ok := session.FromContext(ctx); ok {
		event = event.Str("session_id", sess.ID)
	}
	event.
		Str("tool", p.Name).
		Dur("duration", time.Since(start)).
		Msg("Tool call completed")

	// An error envelope is a normal result: the query ran and reported.
	return &CallToolResult{
		Content:           []Content{{Type: "text", Text: string(text)}},
		StructuredContent: env,
		IsError:           false,
	}, nil
}

func toolCallError(err error) *jsonrpc.Error {
	var toolErr *tools.Error
	if errors.As(err, &toolErr) {
		switch toolErr.Code {
		case tools.ErrToolNotFound, tools.ErrInvalidArguments:
			return jsonrpc.NewError(jsonrpc.InvalidParams, toolErr.Message, toolErr.Code)
		}
	}
	return jsonrpc.NewError(jsonrpc.InternalError, "Tool execution failed", err.Error())
}

func asRPCError(err error) *jsonrpc.Error {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return jsonrpc.NewError(jsonrpc.InternalError, err.Error(), nil)
}

func rawOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
