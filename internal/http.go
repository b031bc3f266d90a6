package internal

import "net/http"

// HeaderTransport is a RoundTripper that adds default headers to requests.
// Headers already set on a request are left alone.
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers http.Header
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.Headers) > 0 {
		req = req.Clone(req.Context())
		for key, values := range t.Headers {
			if req.Header.Get(key) != "" {
				continue
			}
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
