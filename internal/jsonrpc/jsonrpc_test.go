package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType any
		wantCode ErrorCode
	}{
		{name: "request with numeric id", input: `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, wantType: &Request{}},
		{name: "request with string id", input: `{"jsonrpc":"2.0","id":"abc","method":"ping"}`, wantType: &Request{}},
		{name: "notification", input: `{"jsonrpc":"2.0","method":"notifications/initialized"}`, wantType: &Notification{}},
		{name: "null id is a notification", input: `{"jsonrpc":"2.0","id":null,"method":"notifications/cancelled"}`, wantType: &Notification{}},
		{name: "response", input: `{"jsonrpc":"2.0","id":7,"result":{}}`, wantType: &Response{}},
		{name: "garbage", input: `{not json`, wantCode: ParseError},
		{name: "wrong version", input: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, wantCode: InvalidRequest},
		{name: "object id", input: `{"jsonrpc":"2.0","id":{},"method":"ping"}`, wantCode: InvalidRequest},
		{name: "batch", input: `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, wantCode: InvalidRequest},
		{name: "empty object", input: `{"jsonrpc":"2.0"}`, wantCode: InvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.input))
			if tt.wantType == nil {
				require.Error(t, err)
				var rpcErr *Error
				require.ErrorAs(t, err, &rpcErr)
				assert.Equal(t, tt.wantCode, rpcErr.Code)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, msg)
		})
	}
}

func TestParseMessage_PreservesID(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"jsonrpc":"2.0","id":12345678901234567890,"method":"ping"}`))
	require.NoError(t, err)

	req := msg.(*Request)
	resp := NewResponse(req.ID, map[string]any{})
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":12345678901234567890,"result":{}}`, string(data))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(nil, NewError(MethodNotFound, "Method not found", "foo/bar"))

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32601,"message":"Method not found","data":"foo/bar"}}`, string(data))
	assert.Equal(t, "JSON-RPC error -32601: Method not found", resp.Error.Error())
}
