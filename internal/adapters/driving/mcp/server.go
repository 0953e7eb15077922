package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Server is the MCP server for doclens. It owns the session registry and
// dispatches JSON-RPC frames arriving on either transport binding. The
// server itself holds no per-request state and is re-entrant; per-session
// ordering is the transport's job.
type Server struct {
	ports    *Ports
	registry *Registry
	log      *zap.Logger
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports, log *zap.Logger) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	return &Server{
		ports:    ports,
		registry: NewRegistry(log),
		log:      log,
	}, nil
}

// Registry exposes the session registry to the transport bindings.
func (s *Server) Registry() *Registry {
	return s.registry
}

// handle processes one inbound frame for a session and returns the response
// frame, or nil for notifications. The caller holds the session's ordering
// lock.
func (s *Server) handle(ctx context.Context, sess *Session, raw []byte) []byte {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return marshalError(nil, codeParseError, "malformed JSON-RPC frame")
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return marshalError(req.ID, codeInvalidRequest, "not a JSON-RPC 2.0 request")
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(sess, &req)

	case "notifications/initialized":
		return nil

	case "ping":
		return marshalResult(req.ID, map[string]any{})

	case "tools/list":
		if resp := s.requireActive(sess, &req); resp != nil {
			return resp
		}
		return marshalResult(req.ID, map[string]any{"tools": toolDescriptors()})

	case "tools/call":
		if resp := s.requireActive(sess, &req); resp != nil {
			return resp
		}
		return s.handleToolCall(ctx, sess, &req)

	default:
		if req.isNotification() {
			s.log.Debug("ignoring unknown notification", zap.String("method", req.Method))
			return nil
		}
		return marshalError(req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func (s *Server) handleInitialize(sess *Session, req *request) []byte {
	if !sess.markInitialized() {
		return marshalError(req.ID, codeInvalidRequest, "session already initialized")
	}

	s.log.Info("session initialized",
		zap.String("session", sess.ID()),
		zap.Stringer("transport", sess.Kind()))

	return marshalResult(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo: serverInfo{Name: "doclens", Version: Version},
	})
}

// requireActive rejects requests arriving before the initialize handshake.
func (s *Server) requireActive(sess *Session, req *request) []byte {
	if sess.isInitialized() {
		return nil
	}
	return marshalError(req.ID, codeInvalidRequest, "session not initialized")
}
