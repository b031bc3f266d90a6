package openapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mattt/mcp-server/internal"
)

// ClientOptions configures the HTTP client used by OpenAPI tools
type ClientOptions struct {
	Retries int
	Timeout time.Duration
	// RPS is the maximum number of requests per second; 0 means no limit
	RPS int
	// Auth is sent as the Authorization header when non-empty
	Auth      string
	UserAgent string
}

// NewHTTPClient creates a retrying HTTP client
func NewHTTPClient(opts ClientOptions, logger *slog.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil
	if logger != nil {
		retryClient.Logger = logger
	}

	if opts.RPS > 0 {
		rps := opts.RPS
		retryClient.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
			// Ensure we wait at least 1/rps between requests
			minWait := time.Second / time.Duration(rps)
			if min < minWait {
				min = minWait
			}
			return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
		}
	}

	client := retryClient.StandardClient()

	headers := http.Header{}
	if opts.Auth != "" {
		headers.Set("Authorization", opts.Auth)
	}
	if opts.UserAgent != "" {
		headers.Set("User-Agent", opts.UserAgent)
	}
	if len(headers) > 0 {
		client.Transport = &internal.HeaderTransport{Base: client.Transport, Headers: headers}
	}

	return client
}
