package mcp

import "encoding/json"

// Version is the MCP server version.
const Version = "0.1.0"

// protocolVersion is the MCP protocol revision the server speaks.
const protocolVersion = "2024-11-05"

// headerSessionID carries the session token on the HTTP binding.
const headerSessionID = "Mcp-Session-Id"

// JSON-RPC error codes. The session codes are server-defined within the
// reserved implementation range.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603

	codeInvalidSession = -32002
	codeWrongTransport = -32003
)

// request is an inbound JSON-RPC frame. A missing id marks a notification.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *request) isNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// response is an outbound JSON-RPC frame.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the structured error object returned for protocol violations.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// notification is an outbound server-to-client frame without an id.
type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

func marshalResult(id json.RawMessage, result any) []byte {
	out, err := json.Marshal(response{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		return marshalError(id, codeInternalError, "encoding response failed")
	}
	return out
}

func marshalError(id json.RawMessage, code int, message string) []byte {
	out, _ := json.Marshal(response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
	return out
}

func marshalNotification(method string, params any) []byte {
	out, _ := json.Marshal(notification{JSONRPC: "2.0", Method: method, Params: params})
	return out
}

// initializeResult is the handshake response.
type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// toolDescriptor declares one tool with its JSON-schema input.
type toolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// callToolParams is the tools/call parameter envelope.
type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// callToolResult is the tools/call response envelope. Tool failures travel
// as IsError-flagged results, never as transport-level faults.
type callToolResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(text string, isError bool) callToolResult {
	return callToolResult{
		Content: []contentItem{{Type: "text", Text: text}},
		IsError: isError,
	}
}
