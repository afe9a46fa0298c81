package mcp

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"yc-mcp-go/internal/jsonrpc"
	"yc-mcp-go/internal/session"
	"yc-mcp-go/internal/telemetry"
)

// SessionHeader carries the session ID on every request after initialize.
const SessionHeader = "Mcp-Session-Id"

// maxBodySize bounds a single POSTed message.
const maxBodySize = 4 * 1024 * 1024

// HTTPHandler serves the Streamable HTTP transport. Each POST carries one
// JSON-RPC message and is answered with a single JSON body.
type HTTPHandler struct {
	handler  *Handler
	sessions *session.Manager
	logger   zerolog.Logger
}

// NewHTTPHandler creates the HTTP transport over handler.
func NewHTTPHandler(handler *Handler, sessions *session.Manager, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		handler:  handler,
		sessions: sessions,
		logger:   logger.With().Str("component", "http_transport").Logger(),
	}
}

// HandlePost processes one client message.
func (h *HTTPHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, nil,
				jsonrpc.NewError(jsonrpc.InvalidRequest, "Request body too large", tooLarge.Limit))
			return
		}
		h.logger.Debug().Err(err).Msg("Failed to read request body")
		h.writeError(w, r, http.StatusBadRequest, nil,
			jsonrpc.NewError(jsonrpc.InvalidRequest, "Failed to read request body", nil))
		return
	}

	msg, err := jsonrpc.ParseMessage(body)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, nil, asRPCError(err))
		return
	}
	telemetry.SetRPCMethod(r.Context(), messageMethod(msg))

	if req, ok := msg.(*jsonrpc.Request); ok && req.Method == MethodInitialize {
		h.initialize(w, r, req)
		return
	}

	sess, status, rpcErr := h.session(r)
	if rpcErr != nil {
		h.writeError(w, r, status, requestID(msg), rpcErr)
		return
	}

	ctx := session.NewContext(r.Context(), sess)
	resp := h.handler.Handle(ctx, msg)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set(SessionHeader, sess.ID)
	render.JSON(w, r, resp)
}

// HandleDelete ends the session named in the request header.
func (h *HTTPHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		h.writeError(w, r, http.StatusBadRequest, nil,
			jsonrpc.NewError(jsonrpc.InvalidRequest, "Missing "+SessionHeader+" header", nil))
		return
	}

	if err := h.sessions.Delete(r.Context(), id); err != nil {
		status := statusForSessionError(err)
		h.writeError(w, r, status, nil, jsonrpc.NewError(jsonrpc.InvalidRequest, "Session not found", nil))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGet rejects the optional server-to-client stream; this server never
// initiates messages.
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, DELETE")
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func (h *HTTPHandler) initialize(w http.ResponseWriter, r *http.Request, req *jsonrpc.Request) {
	resp := h.handler.Handle(r.Context(), req)
	result, ok := resp.Result.(*InitializeResult)
	if resp.Error != nil || !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp)
		return
	}

	params, _ := ParseInitializeParams(req.Params)
	sess, err := h.sessions.Create(r.Context(), result.ProtocolVersion, session.ClientInfo{
		Name:       params.ClientInfo.Name,
		Version:    params.ClientInfo.Version,
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, req.ID,
			jsonrpc.NewError(jsonrpc.InternalError, "Failed to create session", nil))
		return
	}

	w.Header().Set(SessionHeader, sess.ID)
	render.JSON(w, r, resp)
}

// session resolves the caller's session, or reports the HTTP status and
// JSON-RPC error to answer with.
func (h *HTTPHandler) session(r *http.Request) (*session.Session, int, *jsonrpc.Error) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		return nil, http.StatusBadRequest, jsonrpc.NewError(jsonrpc.InvalidRequest, "Missing "+SessionHeader+" header", nil)
	}

	sess, err := h.sessions.Validate(r.Context(), id)
	if err != nil {
		status := statusForSessionError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("session_id", id).Msg("Session lookup failed")
			return nil, status, jsonrpc.NewError(jsonrpc.InternalError, "Session lookup failed", nil)
		}
		h.logger.Debug().Err(err).Str("session_id", id).Msg("Rejected request for unknown session")
		return nil, status, jsonrpc.NewError(jsonrpc.InvalidRequest, "Session not found", session.Code(err))
	}
	return sess, http.StatusOK, nil
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, status int, id any, rpcErr *jsonrpc.Error) {
	render.Status(r, status)
	render.JSON(w, r, jsonrpc.NewErrorResponse(id, rpcErr))
}

// statusForSessionError maps session failures onto the transport's status
// codes: any session the server does not hold is a 404.
func statusForSessionError(err error) int {
	switch session.Code(err) {
	case session.ErrNotFound, session.ErrExpired, session.ErrInvalid:
		return http.StatusNotFound
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// messageMethod names a parsed message for metrics.
func messageMethod(msg any) string {
	switch m := msg.(type) {
	case *jsonrpc.Request:
		return m.Method
	case *jsonrpc.Notification:
		return m.Method
	default:
		return "response"
	}
}

func requestID(msg any) any {
	if req, ok := msg.(*jsonrpc.Request); ok {
		return req.ID
	}
	return nil
}
