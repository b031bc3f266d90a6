package mcp

// Method identifies one of the JSON-RPC methods the server understands.
type Method int

const (
	MethodUnknown Method = iota
	MethodInitialize
	MethodToolsList
	MethodToolsCall
)

// ParseMethod maps a method name to a Method by exact match.
func ParseMethod(name string) Method {
	switch name {
	case "initialize":
		return MethodInitialize
	case "tools/list":
		return MethodToolsList
	case "tools/call":
		return MethodToolsCall
	default:
		return MethodUnknown
	}
}

func (m Method) String() string {
	switch m {
	case MethodInitialize:
		return "initialize"
	case MethodToolsList:
		return "tools/list"
	case MethodToolsCall:
		return "tools/call"
	default:
		return "unknown"
	}
}
