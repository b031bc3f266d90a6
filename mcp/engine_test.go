package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var searchTool = Tool{
	Name:        "search",
	Description: "Search things",
	InputSchema: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query":   {Type: "string"},
			"limit":   {Type: "integer"},
			"score":   {Type: "number"},
			"exact":   {Type: "boolean"},
			"filters": {Type: "object"},
			"tags":    {Type: "array"},
			"cursor":  {Types: []string{"string", "null"}},
		},
		Required: []string{"query"},
	},
}

func newSearchEngine(t *testing.T, fn ToolFunc) *Engine {
	t.Helper()

	registry := NewRegistry()
	require.NoError(t, registry.Register(searchTool, fn))
	return NewEngine(registry, nil)
}

func TestEngine_Validation(t *testing.T) {
	called := false
	engine := newSearchEngine(t, func(context.Context, Arguments) ([]Content, error) {
		called = true
		return []Content{NewTextContent("ok")}, nil
	})

	tests := []struct {
		name     string
		args     map[string]any
		problems []FieldError
	}{
		{
			name: "valid",
			args: map[string]any{
				"query":   "go",
				"limit":   float64(10),
				"score":   0.5,
				"exact":   true,
				"filters": map[string]any{"lang": "en"},
				"tags":    []any{"a", "b"},
				"cursor":  nil,
				"extra":   "allowed",
			},
		},
		{
			name:     "missing required",
			args:     map[string]any{},
			problems: []FieldError{{Field: "query", Reason: "required"}},
		},
		{
			name:     "nil arguments",
			args:     nil,
			problems: []FieldError{{Field: "query", Reason: "required"}},
		},
		{
			name:     "number for string",
			args:     map[string]any{"query": float64(1)},
			problems: []FieldError{{Field: "query", Reason: "expected string, got integer"}},
		},
		{
			name: "several problems in field order",
			args: map[string]any{"limit": 1.5, "exact": "yes"},
			problems: []FieldError{
				{Field: "query", Reason: "required"},
				{Field: "exact", Reason: "expected boolean, got string"},
				{Field: "limit", Reason: "expected integer, got number"},
			},
		},
		{
			name:     "union type",
			args:     map[string]any{"query": "go", "cursor": true},
			problems: []FieldError{{Field: "cursor", Reason: "expected one of [string null], got boolean"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			content, err := engine.Invoke(context.Background(), searchTool, tt.args)

			if tt.problems == nil {
				require.NoError(t, err)
				assert.True(t, called)
				assert.Equal(t, []Content{NewTextContent("ok")}, content)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "search", validationErr.Tool)
			assert.Equal(t, tt.problems, validationErr.Problems)
			assert.False(t, called, "tool must not run with invalid arguments")
		})
	}
}

func TestEngine_SchemaValidation(t *testing.T) {
	minLength := 3
	tool := Tool{
		Name: "strict",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {Type: "string", MinLength: &minLength},
			},
		},
	}

	registry := NewRegistry()
	registry.MustRegister(tool, func(context.Context, Arguments) ([]Content, error) {
		return nil, nil
	})
	engine := NewEngine(registry, nil)

	_, err := engine.Invoke(context.Background(), tool, map[string]any{"code": "ab"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Problems, 1)
	assert.Empty(t, validationErr.Problems[0].Field)

	content, err := engine.Invoke(context.Background(), tool, map[string]any{"code": "abc"})
	require.NoError(t, err)
	assert.Equal(t, []Content{}, content)
}

func TestEngine_ToolFaults(t *testing.T) {
	sentinel := errors.New("backend unavailable")

	tests := []struct {
		name    string
		fn      ToolFunc
		message string
	}{
		{
			name: "returned error",
			fn: func(context.Context, Arguments) ([]Content, error) {
				return nil, sentinel
			},
			message: "backend unavailable",
		},
		{
			name: "returned tool error",
			fn: func(context.Context, Arguments) ([]Content, error) {
				return nil, &ToolError{Tool: "other", Message: "quota exceeded"}
			},
			message: "quota exceeded",
		},
		{
			name: "panic",
			fn: func(context.Context, Arguments) ([]Content, error) {
				panic("boom")
			},
			message: "panic: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newSearchEngine(t, tt.fn)

			content, err := engine.Invoke(context.Background(), searchTool, map[string]any{"query": "go"})
			assert.Nil(t, content)

			var toolErr *ToolError
			require.ErrorAs(t, err, &toolErr)
			assert.Equal(t, tt.message, toolErr.Message)
		})
	}

	engine := newSearchEngine(t, func(context.Context, Arguments) ([]Content, error) { return nil, sentinel })
	_, err := engine.Invoke(context.Background(), searchTool, map[string]any{"query": "go"})
	assert.ErrorIs(t, err, sentinel)
}

func TestEngine_UnknownTool(t *testing.T) {
	engine := NewEngine(NewRegistry(), nil)

	_, err := engine.Invoke(context.Background(), Tool{Name: "ghost"}, nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestArguments(t *testing.T) {
	var got Arguments
	engine := newSearchEngine(t, func(_ context.Context, args Arguments) ([]Content, error) {
		got = args
		return nil, nil
	})

	_, err := engine.Invoke(context.Background(), searchTool, map[string]any{
		"query": "go",
		"limit": float64(7),
		"score": 0.25,
		"exact": true,
	})
	require.NoError(t, err)

	assert.Equal(t, "go", got.String("query"))
	assert.Equal(t, int64(7), got.Int("limit"))
	assert.Equal(t, 0.25, got.Float("score"))
	assert.True(t, got.Bool("exact"))
	assert.Equal(t, 4, got.Len())
	assert.True(t, got.Has("query"))
	assert.False(t, got.Has("tags"))
	assert.Empty(t, got.String("limit"))

	v, ok := got.Lookup("limit")
	assert.True(t, ok)
	assert.Equal(t, float64(7), v)

	copied := got.Map()
	copied["query"] = "changed"
	assert.Equal(t, "go", got.String("query"))

	var decoded struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	require.NoError(t, got.Decode(&decoded))
	assert.Equal(t, "go", decoded.Query)
	assert.Equal(t, 7, decoded.Limit)
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name string
		want Method
	}{
		{"initialize", MethodInitialize},
		{"tools/list", MethodToolsList},
		{"tools/call", MethodToolsCall},
		{"Tools/List", MethodUnknown},
		{"tools/list ", MethodUnknown},
		{"resources/list", MethodUnknown},
		{"", MethodUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMethod(tt.name), tt.name)
	}
	assert.Equal(t, "tools/call", MethodToolsCall.String())
	assert.Equal(t, "unknown", MethodUnknown.String())
}
