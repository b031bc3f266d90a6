package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mattt/mcp-server/jsonrpc"
)

// Server dispatches JSON-RPC requests to the initialize, tools/list and
// tools/call handlers
type Server struct {
	info         Implementation
	instructions string
	registry     *Registry
	engine       *Engine
	logger       *slog.Logger
}

var _ jsonrpc.Handler = (*Server)(nil)

// ServerOption configures a Server
type ServerOption func(*Server) error

// WithServerInfo sets the name and version reported by initialize
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) error {
		if name == "" {
			return errors.New("server name cannot be empty")
		}
		s.info = Implementation{Name: name, Version: version}
		return nil
	}
}

// WithInstructions sets the usage hint returned by initialize
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) error {
		s.instructions = instructions
		return nil
	}
}

// WithRegistry sets the tools the server exposes
func WithRegistry(registry *Registry) ServerOption {
	return func(s *Server) error {
		if registry == nil {
			return errors.New("registry cannot be nil")
		}
		s.registry = registry
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// NewServer creates a new MCP server instance
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		info:   Implementation{Name: "mcp-server", Version: "0.1.0"},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.registry == nil {
		s.registry = NewRegistry()
	}
	s.engine = NewEngine(s.registry, s.logger)

	return s, nil
}

// Handle processes a single JSON-RPC request and returns its response.
// Any failure, including a panic in a handler, becomes an error response.
func (s *Server) Handle(request jsonrpc.Request) (response jsonrpc.Response) {
	method := ParseMethod(request.Method)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panicked", "method", request.Method, "panic", r)
			response = jsonrpc.NewResponse(request.ID, nil, jsonrpc.NewError(jsonrpc.ErrInternal, fmt.Sprint(r)))
		}
	}()

	switch method {
	case MethodInitialize:
		return s.handleInitialize(request)
	case MethodToolsList:
		return s.handleToolsList(request)
	case MethodToolsCall:
		return s.handleToolsCall(request)
	default:
		s.logger.Debug("method not found", "method", request.Method)
		return jsonrpc.NewResponse(request.ID, nil, jsonrpc.NewError(jsonrpc.ErrMethodNotFound, nil))
	}
}

func (s *Server) handleInitialize(request jsonrpc.Request) jsonrpc.Response {
	var params InitializeRequest
	if !isNull(request.Params) {
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.logger.Debug("ignoring unreadable initialize params", "error", err)
		}
	}

	s.logger.Info("client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol_version", params.ProtocolVersion)

	return jsonrpc.NewResponse(request.ID, InitializeResponse{
		ProtocolVersion: Version,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo:   s.info,
		Instructions: s.instructions,
	}, nil)
}

func (s *Server) handleToolsList(request jsonrpc.Request) jsonrpc.Response {
	return jsonrpc.NewResponse(request.ID, ToolsListResponse{Tools: s.registry.List()}, nil)
}

func (s *Server) handleToolsCall(request jsonrpc.Request) jsonrpc.Response {
	params, err := parseToolCall(request.Params)
	if err != nil {
		return jsonrpc.NewResponse(request.ID, nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, err.Error()))
	}

	tool, ok := s.registry.Lookup(params.Name)
	if !ok {
		s.logger.Debug("unknown tool", "tool", params.Name)
		return jsonrpc.NewResponse(request.ID, nil, unknownToolError(params.Name))
	}

	content, err := s.engine.Invoke(context.Background(), tool, params.Arguments)
	if err != nil {
		return jsonrpc.NewResponse(request.ID, nil, s.toolCallError(tool.Name, err))
	}

	return jsonrpc.NewResponse(request.ID, ToolCallResponse{Content: content}, nil)
}

func (s *Server) toolCallError(name string, err error) *jsonrpc.Error {
	var validationErr *ValidationError
	var toolErr *ToolError

	switch {
	case errors.As(err, &validationErr):
		s.logger.Debug("invalid tool arguments", "tool", name, "error", err)
		return jsonrpc.NewError(jsonrpc.ErrInvalidParams, validationErr.Problems)
	case errors.As(err, &toolErr):
		s.logger.Warn("tool failed", "tool", name, "error", err)
		return jsonrpc.NewErrorf(CodeToolFailed, map[string]any{"tool": name}, "Tool execution failed: %s", toolErr.Message)
	case errors.Is(err, ErrToolNotFound):
		return unknownToolError(name)
	default:
		s.logger.Error("tool call failed", "tool", name, "error", err)
		return jsonrpc.NewError(jsonrpc.ErrInternal, err.Error())
	}
}

func unknownToolError(name string) *jsonrpc.Error {
	return jsonrpc.NewErrorf(CodeUnknownTool, map[string]any{"tool": name}, "Unknown tool: %s", name)
}

// parseToolCall checks the shape of tools/call params: an object with a
// string name and an object of arguments.
func parseToolCall(raw json.RawMessage) (ToolCallRequest, error) {
	var req ToolCallRequest

	if isNull(raw) {
		return req, errors.New("params must be an object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return req, errors.New("params must be an object")
	}

	name, ok := fields["name"]
	if !ok || isNull(name) {
		return req, errors.New("tool name is required")
	}
	if err := json.Unmarshal(name, &req.Name); err != nil {
		return req, errors.New("tool name must be a string")
	}
	if req.Name == "" {
		return req, errors.New("tool name is required")
	}

	args, ok := fields["arguments"]
	if !ok || isNull(args) {
		return req, errors.New("arguments are required")
	}
	if bytes.TrimSpace(args)[0] != '{' {
		return req, errors.New("arguments must be an object")
	}
	if err := json.Unmarshal(args, &req.Arguments); err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}

	return req, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
