package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattt/mcp-server/jsonrpc"
)

// Tool fault codes. Both sit outside the range JSON-RPC reserves
// (-32768 to -32000).
const (
	// CodeUnknownTool is returned when tools/call names a tool that is not registered
	CodeUnknownTool jsonrpc.ErrorCode = -31001

	// CodeToolFailed is returned when a tool ran and reported a failure
	CodeToolFailed jsonrpc.ErrorCode = -31002
)

// ErrToolNotFound is returned by the engine for a tool missing from the registry
var ErrToolNotFound = errors.New("tool not found")

// FieldError describes one problem with a tool argument
type FieldError struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// ValidationError is returned when tool arguments do not match the tool's input schema
type ValidationError struct {
	Tool     string
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(parts, "; "))
}

// ToolError is returned when a tool's behavior fails after its arguments were accepted
type ToolError struct {
	Tool    string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
