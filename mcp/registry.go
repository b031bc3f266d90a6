package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolFunc is the behavior bound to a tool. It only ever receives
// arguments that passed validation against the tool's input schema.
type ToolFunc func(ctx context.Context, args Arguments) ([]Content, error)

type registration struct {
	tool     Tool
	fn       ToolFunc
	resolved *jsonschema.Resolved
}

// Registry holds the tools a server exposes, in registration order.
// It is safe for concurrent use, though the server only reads from it
// once it starts serving.
type Registry struct {
	mu      sync.RWMutex
	entries []*registration
	index   map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds a tool and its behavior.
//
// Registering a name that is already present replaces the earlier tool
// in place: the last registration wins and the listing order is unchanged.
func (r *Registry) Register(tool Tool, fn ToolFunc) error {
	if tool.Name == "" {
		return errors.New("tool name required")
	}
	if fn == nil {
		return fmt.Errorf("tool %q: handler required", tool.Name)
	}
	if tool.InputSchema == nil {
		tool.InputSchema = &jsonschema.Schema{Type: "object"}
	}

	resolved, err := tool.InputSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("tool %q: invalid input schema: %w", tool.Name, err)
	}

	entry := &registration{tool: tool, fn: fn, resolved: resolved}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[tool.Name]; ok {
		r.entries[i] = entry
		return nil
	}
	r.index[tool.Name] = len(r.entries)
	r.entries = append(r.entries, entry)
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(tool Tool, fn ToolFunc) {
	if err := r.Register(tool, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor of the named tool
func (r *Registry) Lookup(name string) (Tool, bool) {
	entry, ok := r.lookup(name)
	if !ok {
		return Tool{}, false
	}
	return entry.tool, true
}

func (r *Registry) lookup(name string) (*registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[i], true
}

// List returns all tool descriptors in registration order
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.entries))
	for _, entry := range r.entries {
		tools = append(tools, entry.tool)
	}
	return tools
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
