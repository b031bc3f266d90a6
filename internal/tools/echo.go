// Package tools provides the tools built into the server.
package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mattt/mcp-server/mcp"
)

// EchoTool describes the echo tool
var EchoTool = mcp.Tool{
	Name:        "echo",
	Description: "Echo back the input text",
	InputSchema: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"text": {
				Type:        "string",
				Description: "Text to echo back",
			},
		},
		Required: []string{"text"},
	},
}

// Echo returns its text argument prefixed with "Echo: "
func Echo(_ context.Context, args mcp.Arguments) ([]mcp.Content, error) {
	return []mcp.Content{
		mcp.NewTextContent("Echo: " + args.String("text")),
	}, nil
}

// Register adds the built-in tools to r
func Register(r *mcp.Registry) error {
	return r.Register(EchoTool, Echo)
}
