package jsonrpc

import (
	"errors"

	"github.com/ethereum/go-ethereum/rpc"
)

// FromError maps a handler or backend failure onto an error object. JSON-RPC
// errors returned by a backend keep their code, message and data so callers
// see exactly what the backend said.
func FromError(err error) *Error {
	var own *Error
	if errors.As(err, &own) {
		return own
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		out := &Error{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			out.Data = dataErr.ErrorData()
		}
		return out
	}
	if errors.Is(err, ErrParams) {
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return &Error{Code: CodeServer, Message: err.Error()}
}
