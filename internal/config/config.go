package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for the server
type Config struct {
	// Server identifies the server to clients during initialize
	Server ServerConfig `yaml:"server"`

	// Verbose enables debug logging to stderr
	Verbose bool `yaml:"verbose"`

	// OpenAPI optionally exposes the operations of an OpenAPI document as tools
	OpenAPI OpenAPIConfig `yaml:"openapi"`
}

// ServerConfig holds the identity reported in serverInfo
type ServerConfig struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Instructions string `yaml:"instructions"`
}

// OpenAPIConfig configures the OpenAPI tool source
type OpenAPIConfig struct {
	// Spec is a file path, an HTTP(S) URL, or "-" for stdin. Empty disables the source.
	Spec string `yaml:"spec"`

	// BaseURL overrides the first server URL declared by the document
	BaseURL string `yaml:"baseURL"`

	// Auth is an Authorization header value or a secret reference (op://, env://)
	Auth string `yaml:"auth"`

	Retries int           `yaml:"retries"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     int           `yaml:"rps"`

	// DisabledOperations specifies which HTTP operations are disabled
	DisabledOperations Operations `yaml:"disabledOperations"`

	// DisabledEndpoints specifies which specific operation IDs are disabled
	DisabledEndpoints []string `yaml:"disabledEndpoints"`

	// DisabledPaths specifies which paths (as regex patterns) are disabled
	DisabledPaths []string `yaml:"disabledPaths"`

	disabledPaths []*regexp.Regexp
}

// Operations represents which HTTP operations are enabled/disabled
type Operations struct {
	GET     bool `yaml:"get"`
	POST    bool `yaml:"post"`
	PUT     bool `yaml:"put"`
	DELETE  bool `yaml:"delete"`
	PATCH   bool `yaml:"patch"`
	HEAD    bool `yaml:"head"`
	OPTIONS bool `yaml:"options"`
}

// DefaultConfig returns a default configuration with all operations enabled
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "mcp-server",
			Version: "0.1.0",
		},
		OpenAPI: OpenAPIConfig{
			Retries:           3,
			Timeout:           60 * time.Second,
			DisabledEndpoints: []string{},
			DisabledPaths:     []string{},
		},
	}
}

// LoadFile loads configuration from a file. An empty path or a missing
// file yields the default configuration.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads YAML configuration from an io.Reader, on top of the defaults
func Load(r io.Reader) (*Config, error) {
	config := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration and compiles the disabled path patterns
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server name cannot be empty")
	}
	if c.OpenAPI.Retries < 0 {
		return fmt.Errorf("openapi retries cannot be negative")
	}
	if c.OpenAPI.RPS < 0 {
		return fmt.Errorf("openapi rps cannot be negative")
	}

	c.OpenAPI.disabledPaths = c.OpenAPI.disabledPaths[:0]
	for _, pattern := range c.OpenAPI.DisabledPaths {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid disabled path pattern %q: %w", pattern, err)
		}
		c.OpenAPI.disabledPaths = append(c.OpenAPI.disabledPaths, re)
	}

	return nil
}

// IsOperationDisabled checks if a specific HTTP operation is disabled
func (c *OpenAPIConfig) IsOperationDisabled(method string) bool {
	switch strings.ToUpper(method) {
	case "GET":
		return c.DisabledOperations.GET
	case "POST":
		return c.DisabledOperations.POST
	case "PUT":
		return c.DisabledOperations.PUT
	case "DELETE":
		return c.DisabledOperations.DELETE
	case "PATCH":
		return c.DisabledOperations.PATCH
	case "HEAD":
		return c.DisabledOperations.HEAD
	case "OPTIONS":
		return c.DisabledOperations.OPTIONS
	default:
		return false
	}
}

// IsEndpointDisabled checks if a specific operation ID is in the disabled list
func (c *OpenAPIConfig) IsEndpointDisabled(operationID string) bool {
	return operationID != "" && slices.Contains(c.DisabledEndpoints, operationID)
}

// IsPathDisabled checks if a path matches one of the disabled patterns.
// Patterns are compiled by Validate.
func (c *OpenAPIConfig) IsPathDisabled(path string) bool {
	for _, re := range c.disabledPaths {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// IsDisabled reports whether an operation is excluded by any filter
func (c *OpenAPIConfig) IsDisabled(method, path, operationID string) bool {
	return c.IsOperationDisabled(method) || c.IsEndpointDisabled(operationID) || c.IsPathDisabled(path)
}
