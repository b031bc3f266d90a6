package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID represents a JSON-RPC ID which must be either a string or number.
// The zero value is the null ID, used when a request's ID could not be read.
type ID struct {
	value any // string, json.Number, or nil
}

// NewID creates a JSON-RPC ID from a string or number
func NewID(id any) (ID, error) {
	switch v := id.(type) {
	case ID:
		return v, nil
	case string:
		return ID{value: v}, nil
	case json.Number:
		return ID{value: v}, nil
	case int:
		return ID{value: json.Number(strconv.Itoa(v))}, nil
	case int32:
		return ID{value: json.Number(strconv.FormatInt(int64(v), 10))}, nil
	case int64:
		return ID{value: json.Number(strconv.FormatInt(v, 10))}, nil
	case float32:
		return ID{value: json.Number(strconv.FormatFloat(float64(v), 'g', -1, 32))}, nil
	case float64:
		return ID{value: json.Number(strconv.FormatFloat(v, 'g', -1, 64))}, nil
	case nil:
		return ID{}, nil
	default:
		return ID{}, fmt.Errorf("id must be string or number, got %T", id)
	}
}

// MustID is like NewID but panics on an invalid value.
func MustID(id any) ID {
	v, err := NewID(id)
	if err != nil {
		panic(err)
	}
	return v
}

// Value returns the underlying string or json.Number, or nil for the null ID.
func (id ID) Value() any {
	return id.value
}

func (id ID) IsNil() bool {
	return id.value == nil
}

// Equal compares two IDs for equality
func (id ID) Equal(other any) bool {
	o, err := NewID(other)
	if err != nil {
		return false
	}
	if id.value == nil || o.value == nil {
		return id.value == nil && o.value == nil
	}
	a, aNum := id.value.(json.Number)
	b, bNum := o.value.(json.Number)
	if aNum != bNum {
		return false
	}
	if aNum {
		if a == b {
			return true
		}
		af, errA := a.Float64()
		bf, errB := b.Float64()
		return errA == nil && errB == nil && af == bf
	}
	return id.value == o.value
}

var _ fmt.GoStringer = ID{}

// GoString implements fmt.GoStringer
func (id ID) GoString() string {
	switch v := id.value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case json.Number:
		return v.String()
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%v", v)
	}
}

var _ json.Marshaler = ID{}

func (id ID) MarshalJSON() ([]byte, error) {
	switch v := id.value.(type) {
	case nil:
		return []byte("null"), nil
	case json.Number:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

var _ json.Unmarshaler = &ID{}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		id.value = v
	case json.Number:
		id.value = v
	case nil:
		id.value = nil
	default:
		return fmt.Errorf("id must be string or number, got %T", raw)
	}
	return nil
}
