package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeError is returned by Decode when a line is not a valid request.
// ID holds the request ID when it could still be read, and is null otherwise.
type DecodeError struct {
	ID  ID
	Err *Error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode request: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Response builds the error response to send back for the undecodable line
func (e *DecodeError) Response() Response {
	return NewResponse(e.ID, nil, e.Err)
}

// Decode parses a single line of text into a Request.
// Member names are matched exactly.
func Decode(line []byte) (Request, error) {
	line = bytes.TrimSpace(line)
	if !json.Valid(line) {
		var v any
		err := json.Unmarshal(line, &v)
		return Request{}, &DecodeError{Err: NewError(ErrParse, err.Error())}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil || fields == nil {
		return Request{}, &DecodeError{Err: NewErrorf(ErrInvalidRequest, nil, "Invalid Request: expected a JSON object")}
	}

	var req Request
	if raw, ok := fields["id"]; ok {
		if err := req.ID.UnmarshalJSON(raw); err != nil {
			return Request{}, &DecodeError{Err: NewErrorf(ErrInvalidRequest, nil, "Invalid Request: %v", err)}
		}
		req.hasID = true
	}

	version, ok := fields["jsonrpc"]
	if !ok || json.Unmarshal(version, &req.Version) != nil || req.Version != Version {
		return Request{}, &DecodeError{ID: req.ID, Err: NewErrorf(ErrInvalidRequest, nil, "Invalid Request: jsonrpc must be %q", Version)}
	}

	method, ok := fields["method"]
	if !ok {
		return Request{}, &DecodeError{ID: req.ID, Err: NewErrorf(ErrInvalidRequest, nil, "Invalid Request: missing method")}
	}
	if len(method) == 0 || method[0] != '"' || json.Unmarshal(method, &req.Method) != nil {
		return Request{}, &DecodeError{ID: req.ID, Err: NewErrorf(ErrInvalidRequest, nil, "Invalid Request: method must be a string")}
	}

	req.Params = fields["params"]
	return req, nil
}

// Encode serializes a Response to a single newline-terminated line.
// A response whose result cannot be encoded is replaced by an internal
// error carrying the same ID, so Encode always produces a line.
func Encode(response Response) []byte {
	data, err := json.Marshal(response)
	if err != nil {
		data, _ = json.Marshal(NewResponse(response.ID, nil, NewError(ErrInternal, err.Error())))
	}
	return append(data, '\n')
}
