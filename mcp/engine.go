package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// Engine validates tool arguments and runs tool behaviors
type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// NewEngine creates an engine that runs the tools in registry
func NewEngine(registry *Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{registry: registry, logger: logger}
}

// Invoke validates args against the tool's input schema and runs the tool.
//
// It returns ErrToolNotFound if the tool is not registered, a *ValidationError
// if the arguments are rejected, and a *ToolError if the tool itself fails,
// including by panicking.
func (e *Engine) Invoke(ctx context.Context, tool Tool, args map[string]any) ([]Content, error) {
	entry, ok := e.registry.lookup(tool.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, tool.Name)
	}

	if args == nil {
		args = map[string]any{}
	}

	if err := validate(entry, args); err != nil {
		return nil, err
	}

	return e.run(ctx, entry, Arguments{values: args})
}

func (e *Engine) run(ctx context.Context, entry *registration, args Arguments) (content []Content, err error) {
	name := entry.tool.Name

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", "tool", name, "panic", r)
			content = nil
			err = &ToolError{Tool: name, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	content, err = entry.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{Tool: name, Message: err.Error(), Err: err}
	}

	if content == nil {
		content = []Content{}
	}
	return content, nil
}

// validate checks required fields and primitive property types first,
// so the common mistakes get field-level reports, then applies the
// full schema.
func validate(entry *registration, args map[string]any) error {
	schema := entry.tool.InputSchema
	var problems []FieldError

	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			problems = append(problems, FieldError{Field: name, Reason: "required"})
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := schema.Properties[name]
		if !ok || prop == nil {
			continue
		}
		types := schemaTypes(prop)
		if len(types) == 0 {
			continue
		}
		if !slices.ContainsFunc(types, func(t string) bool { return matchesType(t, args[name]) }) {
			problems = append(problems, FieldError{
				Field:  name,
				Reason: fmt.Sprintf("expected %s, got %s", joinTypes(types), typeName(args[name])),
			})
		}
	}

	if len(problems) == 0 && entry.resolved != nil {
		if err := entry.resolved.Validate(args); err != nil {
			problems = append(problems, FieldError{Reason: err.Error()})
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Tool: entry.tool.Name, Problems: problems}
	}
	return nil
}

func schemaTypes(s *jsonschema.Schema) []string {
	if s.Type != "" {
		return []string{s.Type}
	}
	return s.Types
}

func matchesType(t string, v any) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := toFloat(v)
		return ok
	case "integer":
		return isInteger(v)
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "null":
		return v == nil
	default:
		return true
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if isInteger(v) {
		return "integer"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func joinTypes(types []string) string {
	if len(types) == 1 {
		return types[0]
	}
	return fmt.Sprintf("one of %v", types)
}
