package openapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxSpecSize prevents loading extremely large files
const maxSpecSize = 100 * 1024 * 1024

// LoadSpec reads an OpenAPI document from a file path, an HTTP(S) URL,
// or stdin when location is "-".
func LoadSpec(ctx context.Context, location string, client *http.Client, stdin io.Reader) ([]byte, error) {
	var specData []byte
	var err error

	switch {
	case location == "-":
		specData, err = io.ReadAll(io.LimitReader(stdin, maxSpecSize+1))
		if err != nil {
			return nil, fmt.Errorf("error reading OpenAPI spec from stdin: %w", err)
		}
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		specData, err = download(ctx, location, client)
		if err != nil {
			return nil, err
		}
	default:
		specData, err = readFile(location)
		if err != nil {
			return nil, err
		}
	}

	if len(specData) == 0 {
		return nil, fmt.Errorf("no OpenAPI spec data provided")
	}
	if len(specData) > maxSpecSize {
		return nil, fmt.Errorf("OpenAPI spec too large (max 100MB)")
	}
	return specData, nil
}

func download(ctx context.Context, url string, client *http.Client) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading spec: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("error downloading spec from %s: %s", url, resp.Status)
	}

	specData, err := io.ReadAll(io.LimitReader(resp.Body, maxSpecSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading spec from %s: %w", url, err)
	}
	return specData, nil
}

func readFile(path string) ([]byte, error) {
	// Clean the file path to remove any . or .. segments
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("spec file does not exist: %s", cleanPath)
		}
		return nil, fmt.Errorf("error accessing spec file %s: %w", cleanPath, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("specified path is a directory, not a file: %s", cleanPath)
	}
	if info.Size() > maxSpecSize {
		return nil, fmt.Errorf("spec file too large (max 100MB): %s", cleanPath)
	}

	specData, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading spec file %s: %w", cleanPath, err)
	}
	return specData, nil
}
