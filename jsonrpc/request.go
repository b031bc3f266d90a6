package jsonrpc

import "encoding/json"

// Version is the JSON-RPC protocol version
const Version = "2.0"

// Request represents a JSON-RPC request object.
// A request decoded without an "id" member is a notification.
type Request struct {
	Version string
	Method  string
	Params  json.RawMessage
	ID      ID

	hasID bool
}

// NewRequest creates a new Request object
func NewRequest(method string, params json.RawMessage, id any) Request {
	reqID, _ := NewID(id)

	return Request{
		Version: Version,
		Method:  method,
		Params:  params,
		ID:      reqID,
		hasID:   true,
	}
}

// NewNotification creates a Request that carries no ID and expects no response
func NewNotification(method string, params json.RawMessage) Request {
	return Request{
		Version: Version,
		Method:  method,
		Params:  params,
	}
}

// IsNotification reports whether the request was sent without an ID
func (r Request) IsNotification() bool {
	return !r.hasID
}

var _ json.Marshaler = Request{}

func (r Request) MarshalJSON() ([]byte, error) {
	type request struct {
		Version string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
		ID      *ID             `json:"id,omitempty"`
	}

	out := request{Version: r.Version, Method: r.Method, Params: r.Params}
	if r.hasID {
		id := r.ID
		out.ID = &id
	}
	return json.Marshal(out)
}

var _ json.Unmarshaler = &Request{}

// UnmarshalJSON applies the same validation as Decode
func (r *Request) UnmarshalJSON(data []byte) error {
	req, err := Decode(data)
	if err != nil {
		return err
	}
	*r = req
	return nil
}
