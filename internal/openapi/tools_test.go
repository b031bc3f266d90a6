package openapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattt/mcp-server/internal/config"
	"github.com/mattt/mcp-server/jsonrpc"
	"github.com/mattt/mcp-server/mcp"
)

func newTestSpec(serverURL string) []byte {
	spec := map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":   "Test API",
			"version": "1.0.0",
		},
		"servers": []map[string]any{
			{"url": serverURL},
		},
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"operationId": "listPets",
					"summary":     "List all pets",
					"description": "Returns all pets from the system",
					"parameters": []map[string]any{
						{"name": "limit", "in": "query", "description": "Maximum number of pets to return", "schema": map[string]any{"type": "integer"}},
						{"name": "type", "in": "query", "description": "Type of pets to filter by", "schema": map[string]any{"type": "string"}},
					},
				},
				"post": map[string]any{
					"operationId": "createPet",
					"summary":     "Create a pet",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type":     "object",
									"required": []string{"name"},
									"properties": map[string]any{
										"name": map[string]any{"type": "string"},
										"age":  map[string]any{"type": "integer"},
									},
								},
							},
						},
					},
				},
			},
			"/pets/{petId}": map[string]any{
				"parameters": []map[string]any{
					{"name": "petId", "in": "path", "required": true, "schema": map[string]any{"type": "string"}},
				},
				"get": map[string]any{
					"operationId": "getPet",
					"description": "Returns a single pet",
					"parameters": []map[string]any{
						{"name": "X-Request-Id", "in": "header", "schema": map[string]any{"type": "string"}},
					},
				},
				"delete": map[string]any{
					"summary": "Delete a pet",
				},
			},
			"/pets/image": map[string]any{
				"get": map[string]any{
					"operationId": "getPetImage",
					"description": "Returns a pet's image in PNG format",
				},
			},
			"/admin/reset": map[string]any{
				"post": map[string]any{
					"operationId": "resetEverything",
				},
			},
		},
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}

var imgData = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A} // PNG header

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pets" && r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"limit": r.URL.Query().Get("limit"),
				"type":  r.URL.Query().Get("type"),
			})
		case r.URL.Path == "/pets" && r.Method == http.MethodPost:
			var pet map[string]any
			if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			pet["id"] = 3
			pet["contentType"] = r.Header.Get("Content-Type")
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(pet)
		case r.URL.Path == "/pets/image":
			w.Header().Set("Content-Type", "image/png")
			w.Write(imgData)
		case r.URL.Path == "/pets/missing":
			http.Error(w, "no such pet", http.StatusNotFound)
		case r.URL.Path == "/pets/long":
			http.Error(w, strings.Repeat("a", maxErrorBody-1)+"ééé", http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/pets/"):
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte(r.Method + " " + strings.TrimPrefix(r.URL.Path, "/pets/") + " " + r.Header.Get("X-Request-Id") + " " + r.Header.Get("Authorization")))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T, opts Options) (*mcp.Server, *mcp.Registry) {
	t.Helper()

	ts := newTestAPI(t)
	if opts.Client == nil {
		opts.Client = ts.Client()
	}

	registry := mcp.NewRegistry()
	_, err := Register(registry, newTestSpec(ts.URL), opts)
	require.NoError(t, err)

	server, err := mcp.NewServer(mcp.WithRegistry(registry))
	require.NoError(t, err)
	return server, registry
}

func TestRegister_Tools(t *testing.T) {
	_, registry := newTestServer(t, Options{})

	var names []string
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"listPets", "createPet", "getPet", "DELETE /pets/{petId}", "getPetImage", "resetEverything",
	}, names)

	listPets, ok := registry.Lookup("listPets")
	require.True(t, ok)
	assert.Equal(t, "Returns all pets from the system", listPets.Description)
	assert.Equal(t, "integer", listPets.InputSchema.Properties["limit"].Type)
	assert.Equal(t, "Maximum number of pets to return", listPets.InputSchema.Properties["limit"].Description)
	assert.Empty(t, listPets.InputSchema.Required)

	createPet, ok := registry.Lookup("createPet")
	require.True(t, ok)
	assert.Equal(t, "Create a pet", createPet.Description, "falls back to the summary")
	assert.Contains(t, createPet.InputSchema.Properties, "name")
	assert.Contains(t, createPet.InputSchema.Properties, "age")
	assert.Equal(t, []string{"name"}, createPet.InputSchema.Required)

	getPet, ok := registry.Lookup("getPet")
	require.True(t, ok)
	assert.Equal(t, []string{"petId"}, getPet.InputSchema.Required)
	assert.Contains(t, getPet.InputSchema.Properties, "X-Request-Id")

	image, ok := registry.Lookup("getPetImage")
	require.True(t, ok)
	assert.Empty(t, image.InputSchema.Properties)
}

func TestRegister_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OpenAPI.DisabledOperations.DELETE = true
	cfg.OpenAPI.DisabledEndpoints = []string{"createPet"}
	cfg.OpenAPI.DisabledPaths = []string{"^/admin/"}
	require.NoError(t, cfg.Validate())

	_, registry := newTestServer(t, Options{Disabled: cfg.OpenAPI.IsDisabled})

	var names []string
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"listPets", "getPet", "getPetImage"}, names)
}

func TestRegister_Errors(t *testing.T) {
	registry := mcp.NewRegistry()

	_, err := Register(registry, []byte(`{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {}}`), Options{})
	assert.Error(t, err, "no servers and no base URL")

	n, err := Register(registry, []byte(`{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {}}`), Options{BaseURL: "http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = Register(registry, []byte(`not an openapi document`), Options{BaseURL: "http://example.com"})
	assert.Error(t, err)
}

func callTool(t *testing.T, server *mcp.Server, params string) jsonrpc.Response {
	t.Helper()
	return server.Handle(jsonrpc.NewRequest("tools/call", json.RawMessage(params), 1))
}

func contentOf(t *testing.T, response jsonrpc.Response) []mcp.Content {
	t.Helper()

	require.Nil(t, response.Error, "unexpected error: %+v", response.Error)
	result, ok := response.Result.(mcp.ToolCallResponse)
	require.True(t, ok)
	return result.Content
}

func TestToolsCall(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	t.Run("GET request with query parameters", func(t *testing.T) {
		content := contentOf(t, callTool(t, server, `{"name": "listPets", "arguments": {"limit": 5, "type": "dog"}}`))
		require.Len(t, content, 1)
		assert.Equal(t, "text", content[0].Type)
		assert.JSONEq(t, `{"limit": "5", "type": "dog"}`, content[0].Text)
	})

	t.Run("POST request with body", func(t *testing.T) {
		content := contentOf(t, callTool(t, server, `{"name": "createPet", "arguments": {"name": "Whiskers", "age": 5}}`))
		require.Len(t, content, 1)
		assert.JSONEq(t, `{"name": "Whiskers", "age": 5, "id": 3, "contentType": "application/json"}`, content[0].Text)
	})

	t.Run("path and header parameters", func(t *testing.T) {
		content := contentOf(t, callTool(t, server, `{"name": "getPet", "arguments": {"petId": "fluffy", "X-Request-Id": "r-1"}}`))
		assert.Equal(t, "GET fluffy r-1 ", content[0].Text)
	})

	t.Run("unnamed operation", func(t *testing.T) {
		content := contentOf(t, callTool(t, server, `{"name": "DELETE /pets/{petId}", "arguments": {"petId": "rex"}}`))
		assert.Equal(t, "DELETE rex  ", content[0].Text)
	})

	t.Run("image response", func(t *testing.T) {
		content := contentOf(t, callTool(t, server, `{"name": "getPetImage", "arguments": {}}`))
		require.Len(t, content, 1)
		assert.Equal(t, "image", content[0].Type)
		assert.Equal(t, "image/png", content[0].MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(imgData), content[0].Data)
	})

	t.Run("missing required argument", func(t *testing.T) {
		response := callTool(t, server, `{"name": "createPet", "arguments": {"age": 5}}`)
		require.NotNil(t, response.Error)
		assert.Equal(t, jsonrpc.ErrInvalidParams, response.Error.Code)
	})

	t.Run("HTTP error becomes tool fault", func(t *testing.T) {
		response := callTool(t, server, `{"name": "getPet", "arguments": {"petId": "missing"}}`)
		require.NotNil(t, response.Error)
		assert.Equal(t, mcp.CodeToolFailed, response.Error.Code)
		assert.Contains(t, response.Error.Message, "404")
		assert.Contains(t, response.Error.Message, "no such pet")
	})

	t.Run("long error body is cut on a rune boundary", func(t *testing.T) {
		response := callTool(t, server, `{"name": "getPet", "arguments": {"petId": "long"}}`)
		require.NotNil(t, response.Error)
		assert.True(t, utf8.ValidString(response.Error.Message))
		assert.True(t, strings.HasSuffix(response.Error.Message, strings.Repeat("a", maxErrorBody-1)+"..."), response.Error.Message)
	})
}

func TestToolsCall_RetryingClient(t *testing.T) {
	client := NewHTTPClient(ClientOptions{
		Retries:   0,
		Timeout:   5 * time.Second,
		RPS:       100,
		Auth:      "Bearer token123",
		UserAgent: "mcp-server-test",
	}, nil)

	server, _ := newTestServer(t, Options{Client: client})

	content := contentOf(t, callTool(t, server, `{"name": "getPet", "arguments": {"petId": "fluffy"}}`))
	assert.Equal(t, "GET fluffy  Bearer token123", content[0].Text)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "abc", formatValue("abc"))
	assert.Equal(t, "5", formatValue(float64(5)))
	assert.Equal(t, "2.5", formatValue(2.5))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, `["a","b"]`, formatValue([]any{"a", "b"}))
}

func TestLoadSpec(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.json" {
			http.NotFound(w, r)
			return
		}
		w.Write(newTestSpec("http://example.com"))
	}))
	defer ts.Close()

	ctx := context.Background()

	data, err := LoadSpec(ctx, ts.URL+"/openapi.json", ts.Client(), nil)
	require.NoError(t, err)
	assert.Equal(t, newTestSpec("http://example.com"), data)

	_, err = LoadSpec(ctx, ts.URL+"/missing.json", ts.Client(), nil)
	assert.Error(t, err)

	data, err = LoadSpec(ctx, "-", nil, strings.NewReader(`{"openapi": "3.0.0"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"openapi": "3.0.0"}`, string(data))

	_, err = LoadSpec(ctx, "-", nil, strings.NewReader(""))
	assert.Error(t, err)

	_, err = LoadSpec(ctx, t.TempDir(), nil, nil)
	assert.ErrorContains(t, err, "directory")

	_, err = LoadSpec(ctx, "does/not/exist.yaml", nil, nil)
	assert.ErrorContains(t, err, "does not exist")
}
