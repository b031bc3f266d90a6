package jsonrpc

import "encoding/json"

// Result is any JSON-encodable value
type Result any

// Response represents a JSON-RPC response object.
// Exactly one of Result or Error is written on the wire.
type Response struct {
	Version string
	Result  Result
	Error   *Error
	ID      ID
}

// NewResponse creates a new Response object
func NewResponse(id any, result Result, err *Error) Response {
	respID, _ := NewID(id)

	return Response{
		Version: Version,
		ID:      respID,
		Result:  result,
		Error:   err,
	}
}

var _ json.Marshaler = Response{}

func (r Response) MarshalJSON() ([]byte, error) {
	version := r.Version
	if version == "" {
		version = Version
	}

	if r.Error != nil {
		return json.Marshal(struct {
			Version string `json:"jsonrpc"`
			Error   *Error `json:"error"`
			ID      ID     `json:"id"`
		}{version, r.Error, r.ID})
	}

	return json.Marshal(struct {
		Version string `json:"jsonrpc"`
		Result  Result `json:"result"`
		ID      ID     `json:"id"`
	}{version, r.Result, r.ID})
}

var _ json.Unmarshaler = &Response{}

func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *Error          `json:"error"`
		ID      ID              `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var result any
	if raw.Error == nil && len(raw.Result) > 0 {
		if err := json.Unmarshal(raw.Result, &result); err != nil {
			return err
		}
	}

	*r = Response{
		Version: raw.Version,
		Result:  result,
		Error:   raw.Error,
		ID:      raw.ID,
	}
	return nil
}
