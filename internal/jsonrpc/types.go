// Package jsonrpc holds the JSON-RPC 2.0 envelope shared by the gateway and
// its backend clients.
package jsonrpc

import "encoding/json"

const Version = "2.0"

// Request is an inbound envelope. ID and JSONRPC are echoed back untouched,
// so ID stays raw to keep numeric ids from round-tripping through float64.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// MarshalJSON drops "result" from error responses while keeping an explicit
// null result for successful calls such as a pending receipt lookup.
func (r Response) MarshalJSON() ([]byte, error) {
	id := r.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      json.RawMessage `json:"id"`
			Error   *Error          `json:"error"`
		}{r.JSONRPC, id, r.Error})
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{r.JSONRPC, id, r.Result})
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// OK and Err echo the caller's version string; an empty one is normalised
// to 2.0.
func OK(req Request, result any) Response {
	return Response{JSONRPC: version(req), ID: req.ID, Result: result}
}

func Err(req Request, code int, msg string) Response {
	return Response{JSONRPC: version(req), ID: req.ID, Error: &Error{Code: code, Message: msg}}
}

func ErrWith(req Request, e *Error) Response {
	return Response{JSONRPC: version(req), ID: req.ID, Error: e}
}

func version(req Request) string {
	if req.JSONRPC == "" {
		return Version
	}
	return req.JSONRPC
}

const (
	CodeParseError        = -32700
	CodeInvalidRequest    = -32600
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInternal          = -32603
	CodeServer            = -32000
	CodeNotSponsorable    = -32001
	MessageNotSponsorable = "Not a sponsorable operation"
)
