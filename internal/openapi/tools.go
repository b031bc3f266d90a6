// Package openapi exposes the operations of an OpenAPI 3 document as tools.
package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/mattt/mcp-server/mcp"
)

// maxErrorBody bounds how much of an error response is quoted in a tool fault
const maxErrorBody = 512

// Options configures how operations become tools
type Options struct {
	// BaseURL overrides the first server URL declared by the document
	BaseURL string

	// Client performs the HTTP calls. Defaults to http.DefaultClient.
	Client *http.Client

	// Disabled reports whether an operation should be skipped
	Disabled func(method, path, operationID string) bool

	Logger *slog.Logger
}

type parameter struct {
	name string
	in   string
}

type endpoint struct {
	method  string
	path    string
	baseURL string
	params  []parameter
	hasBody bool
	client  *http.Client
}

// Register parses specData and registers one tool per enabled operation.
// It returns the number of tools registered.
func Register(registry *mcp.Registry, specData []byte, opts Options) (int, error) {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	doc, err := libopenapi.NewDocument(specData)
	if err != nil {
		return 0, fmt.Errorf("error parsing OpenAPI spec: %w", err)
	}

	model, errs := doc.BuildV3Model()
	if errs != nil {
		return 0, fmt.Errorf("error building OpenAPI model: %v", errs)
	}

	baseURL := opts.BaseURL
	if baseURL == "" && len(model.Model.Servers) > 0 {
		baseURL = model.Model.Servers[0].URL
	}
	if baseURL == "" {
		return 0, errors.New("no base URL: the spec declares no servers and none was given")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if model.Model.Paths == nil || model.Model.Paths.PathItems == nil {
		return 0, nil
	}

	count := 0
	for pair := model.Model.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
		path := pair.Key()
		pathItem := pair.Value()

		for _, op := range operations(pathItem) {
			if opts.Disabled != nil && opts.Disabled(op.method, path, op.operation.OperationId) {
				opts.Logger.Debug("skipping disabled operation", "method", op.method, "path", path)
				continue
			}

			tool, ep := createTool(op.method, path, pathItem, op.operation)
			ep.baseURL = baseURL
			ep.client = opts.Client

			if err := registry.Register(tool, ep.call); err != nil {
				return count, err
			}
			count++
		}
	}

	return count, nil
}

type methodOperation struct {
	method    string
	operation *v3.Operation
}

func operations(item *v3.PathItem) []methodOperation {
	var ops []methodOperation
	for _, op := range []methodOperation{
		{http.MethodGet, item.Get},
		{http.MethodPost, item.Post},
		{http.MethodPut, item.Put},
		{http.MethodDelete, item.Delete},
		{http.MethodPatch, item.Patch},
		{http.MethodHead, item.Head},
		{http.MethodOptions, item.Options},
	} {
		if op.operation != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

func createTool(method, path string, pathItem *v3.PathItem, operation *v3.Operation) (mcp.Tool, *endpoint) {
	name := operation.OperationId
	if name == "" {
		name = fmt.Sprintf("%s %s", method, path)
	}

	description := operation.Description
	if description == "" {
		description = operation.Summary
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
	ep := &endpoint{method: method, path: path}

	// Operation-level parameters override path-level ones with the same name and location
	params := map[parameter]*v3.Parameter{}
	var order []parameter
	for _, p := range append(append([]*v3.Parameter{}, pathItem.Parameters...), operation.Parameters...) {
		if p == nil || p.Name == "" {
			continue
		}
		switch p.In {
		case "path", "query", "header":
		default:
			continue
		}
		key := parameter{name: p.Name, in: p.In}
		if _, seen := params[key]; !seen {
			order = append(order, key)
		}
		params[key] = p
	}

	for _, key := range order {
		p := params[key]
		prop := propertySchema(p.Schema)
		if prop.Description == "" {
			prop.Description = p.Description
		}
		schema.Properties[p.Name] = prop
		if p.In == "path" || (p.Required != nil && *p.Required) {
			schema.Required = appendUnique(schema.Required, p.Name)
		}
		ep.params = append(ep.params, key)
	}

	if operation.RequestBody != nil && operation.RequestBody.Content != nil {
		if mediaType, ok := operation.RequestBody.Content.Get("application/json"); ok && mediaType != nil && mediaType.Schema != nil {
			if body := mediaType.Schema.Schema(); body != nil && body.Properties != nil {
				for pair := body.Properties.First(); pair != nil; pair = pair.Next() {
					propName := pair.Key()
					if _, taken := schema.Properties[propName]; taken {
						continue
					}
					schema.Properties[propName] = propertySchema(pair.Value())
					ep.hasBody = true
				}
				for _, required := range body.Required {
					if _, ok := schema.Properties[required]; ok {
						schema.Required = appendUnique(schema.Required, required)
					}
				}
			}
		}
	}

	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, ep
}

func propertySchema(proxy *base.SchemaProxy) *jsonschema.Schema {
	prop := &jsonschema.Schema{}
	if proxy == nil {
		return prop
	}
	inner := proxy.Schema()
	if inner == nil {
		return prop
	}
	if len(inner.Type) > 0 {
		prop.Type = inner.Type[0]
	}
	prop.Description = inner.Description
	return prop
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func (e *endpoint) call(ctx context.Context, args mcp.Arguments) ([]mcp.Content, error) {
	values := args.Map()

	path := e.path
	query := url.Values{}
	header := http.Header{}
	for _, p := range e.params {
		v, ok := values[p.name]
		if !ok {
			continue
		}
		delete(values, p.name)

		s := formatValue(v)
		switch p.in {
		case "path":
			path = strings.ReplaceAll(path, "{"+p.name+"}", url.PathEscape(s))
		case "query":
			query.Set(p.name, s)
		case "header":
			header.Set(p.name, s)
		}
	}

	target := e.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if e.hasBody && len(values) > 0 {
		jsonBody, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, e.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	for key, vals := range header {
		req.Header[key] = vals
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		text := strings.TrimSpace(string(respBody))
		if len(text) > maxErrorBody {
			cut := maxErrorBody
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "..."
		}
		return nil, fmt.Errorf("%s %s returned %s: %s", e.method, path, resp.Status, text)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "image/") {
		return []mcp.Content{mcp.NewImageContent(respBody, mediaType)}, nil
	}

	return []mcp.Content{mcp.NewTextContent(string(respBody))}, nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
