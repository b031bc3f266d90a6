package mcp

import (
	"encoding/json"
	"maps"
	"math"
)

// Arguments are the validated arguments of a tool call.
// Only the Engine constructs them, after checking the raw arguments
// against the tool's input schema.
type Arguments struct {
	values map[string]any
}

// Lookup returns the raw value of the named argument
func (a Arguments) Lookup(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Has reports whether the named argument was supplied
func (a Arguments) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// String returns the named argument as a string, or "" if it is absent or not a string
func (a Arguments) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Float returns the named argument as a float64, or 0 if it is absent or not a number
func (a Arguments) Float(name string) float64 {
	f, _ := toFloat(a.values[name])
	return f
}

// Int returns the named argument truncated to an int64, or 0 if it is absent or not a number
func (a Arguments) Int(name string) int64 {
	f, _ := toFloat(a.values[name])
	return int64(f)
}

// Bool returns the named argument as a bool, or false if it is absent or not a boolean
func (a Arguments) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// Len returns the number of supplied arguments
func (a Arguments) Len() int {
	return len(a.values)
}

// Map returns a copy of the arguments
func (a Arguments) Map() map[string]any {
	return maps.Clone(a.values)
}

// Decode unmarshals the arguments into v, which is typically a pointer to a struct
func (a Arguments) Decode(v any) error {
	data, err := json.Marshal(a.values)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func isInteger(v any) bool {
	f, ok := toFloat(v)
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}
