package jsonrpc

import (
	"fmt"
)

// ErrorCode is the numeric code carried by a JSON-RPC error object
type ErrorCode int

// Codes defined by https://www.jsonrpc.org/specification
const (
	// ErrParse means the line was not well-formed JSON
	ErrParse ErrorCode = -32700
	// ErrInvalidRequest means the JSON was not a valid request envelope
	ErrInvalidRequest ErrorCode = -32600
	ErrMethodNotFound ErrorCode = -32601
	ErrInvalidParams  ErrorCode = -32602
	ErrInternal       ErrorCode = -32603

	// ErrServer starts the -32000 to -32099 block left to implementations
	ErrServer ErrorCode = -32000
)

// String returns the standard message for c
func (c ErrorCode) String() string {
	switch c {
	case ErrParse:
		return "Parse error"
	case ErrInvalidRequest:
		return "Invalid Request"
	case ErrMethodNotFound:
		return "Method not found"
	case ErrInvalidParams:
		return "Invalid params"
	case ErrInternal:
		return "Internal error"
	}
	if c >= -32099 && c <= ErrServer {
		return "Server error"
	}
	return "Unknown error"
}

// IsReserved reports whether c lies in the range JSON-RPC keeps for
// protocol-level faults. Application codes must fall outside it.
func (c ErrorCode) IsReserved() bool {
	return c >= -32768 && c <= -32000
}

// Error is a JSON-RPC error object. It doubles as a Go error.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

var _ error = &Error{}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// NewError returns an error with the standard message for code
func NewError(code ErrorCode, data any) *Error {
	return &Error{Code: code, Message: code.String(), Data: data}
}

// NewErrorf returns an error with a custom message
func NewErrorf(code ErrorCode, data any, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Data: data}
}
