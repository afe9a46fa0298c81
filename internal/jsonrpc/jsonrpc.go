package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const Version = "2.0"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorCode int

const (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
	InternalError  ErrorCode = -32603
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, data any) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewResponse builds a successful response to the request with the given id.
func NewResponse(id any, result any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse builds an error response. id is nil when the request
// could not be read far enough to learn it.
func NewErrorResponse(id any, err *Error) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   err,
	}
}

// ParseMessage classifies a single JSON-RPC frame as a *Request,
// *Notification or *Response. Failures are returned as *Error.
func ParseMessage(data []byte) (any, error) {
	var msg struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method,omitempty"`
		Params  json.RawMessage `json:"params,omitempty"`
		Error   *Error          `json:"error,omitempty"`
		Result  json.RawMessage `json:"result,omitempty"`
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return nil, NewError(InvalidRequest, "Batch requests are not supported", nil)
	}

	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, NewError(ParseError, "Parse error", err.Error())
	}

	if msg.JSONRPC != Version {
		return nil, NewError(InvalidRequest, "Invalid JSON-RPC version", nil)
	}

	id, err := decodeID(msg.ID)
	if err != nil {
		return nil, NewError(InvalidRequest, "Invalid request id", err.Error())
	}

	// Check if it's a notification
	if id == nil && msg.Method != "" {
		return &Notification{
			JSONRPC: msg.JSONRPC,
			Method:  msg.Method,
			Params:  msg.Params,
		}, nil
	}

	// Check if it's a request
	if id != nil && msg.Method != "" {
		return &Request{
			JSONRPC: msg.JSONRPC,
			ID:      id,
			Method:  msg.Method,
			Params:  msg.Params,
		}, nil
	}

	// Check if it's a response
	if id != nil && (msg.Result != nil || msg.Error != nil) {
		return &Response{
			JSONRPC: msg.JSONRPC,
			ID:      id,
			Result:  msg.Result,
			Error:   msg.Error,
		}, nil
	}

	return nil, NewError(InvalidRequest, "Invalid message", nil)
}

// decodeID keeps string ids as strings and numeric ids as json.Number so
// they are echoed back byte for byte.
func decodeID(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var id any
	if err := dec.Decode(&id); err != nil {
		return nil, err
	}
	switch id.(type) {
	case string, json.Number:
		return id, nil
	default:
		return nil, fmt.Errorf("id must be string or number, got %s", raw)
	}
}
