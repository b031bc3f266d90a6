package jsonrpc

// Handler turns a decoded request into its response. The transport
// decides whether the response is written.
type Handler interface {
	Handle(request Request) Response
}

// HandlerFunc lets a plain function serve as a Handler
type HandlerFunc func(request Request) Response

// Handle calls f(request)
func (f HandlerFunc) Handle(request Request) Response {
	return f(request)
}
