package mcp

import (
	"encoding/base64"

	"github.com/google/jsonschema-go/jsonschema"
)

// Version is the Model Context Protocol version
const Version = "2024-11-05"

// Content kinds
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
)

// Content represents one item of a tool result
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// NewTextContent creates a text content item
func NewTextContent(text string) Content {
	return Content{
		Type: ContentTypeText,
		Text: text,
	}
}

// NewImageContent creates an image content item, base64 encoding data
func NewImageContent(data []byte, mimeType string) Content {
	return Content{
		Type:     ContentTypeImage,
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}
}

// Initialize
type (
	// Implementation describes the name and version of an MCP client or server
	Implementation struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}

	// ToolsCapability is present when the server offers tools
	ToolsCapability struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}

	// ServerCapabilities represents the server's supported capabilities
	ServerCapabilities struct {
		Tools *ToolsCapability `json:"tools,omitempty"`
	}

	// InitializeRequest represents the params of an initialize request
	InitializeRequest struct {
		ProtocolVersion string         `json:"protocolVersion,omitempty"`
		Capabilities    map[string]any `json:"capabilities,omitempty"`
		ClientInfo      Implementation `json:"clientInfo"`
	}

	// InitializeResponse represents the server's response to an initialize request
	InitializeResponse struct {
		ProtocolVersion string             `json:"protocolVersion"`
		Capabilities    ServerCapabilities `json:"capabilities"`
		ServerInfo      Implementation     `json:"serverInfo"`
		Instructions    string             `json:"instructions,omitempty"`
	}
)

// Tools
type (
	// Tool describes a tool: its name, what it does, and the arguments it accepts
	Tool struct {
		Name        string             `json:"name"`
		Description string             `json:"description"`
		InputSchema *jsonschema.Schema `json:"input_schema"`
	}

	// ToolsListResponse represents the response for the tools/list method
	ToolsListResponse struct {
		Tools []Tool `json:"tools"`
	}

	// ToolCallRequest represents the params of a tools/call request
	ToolCallRequest struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}

	// ToolCallResponse represents the result of a successful tool call
	ToolCallResponse struct {
		Content []Content `json:"content"`
	}
)
