package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/core/domain"
)

// maxBodySize bounds one JSON-RPC request body on the HTTP binding.
const maxBodySize = 4 * 1024 * 1024

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs; on shutdown
// every open session is closed best-effort.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.registry.CloseAll()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// HTTPHandler builds the streamable HTTP binding: POST carries JSON-RPC
// messages, GET opens the session's notification stream, DELETE terminates
// the session, and /healthz answers liveness probes without a session.
func (s *Server) HTTPHandler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealthz)
	router.POST("/mcp", s.handlePost)
	router.GET("/mcp", s.handleStream)
	router.DELETE("/mcp", s.handleDelete)

	return router
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handlePost(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		c.Data(http.StatusBadRequest, "application/json",
			marshalError(nil, codeParseError, "reading request body failed"))
		return
	}

	sess, ok := s.sessionForPost(c, body)
	if !ok {
		return
	}

	sess.mu.Lock()
	resp := s.handle(c.Request.Context(), sess, body)
	sess.mu.Unlock()

	if resp == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.Data(http.StatusOK, "application/json", resp)
}

// sessionForPost resolves the session for an inbound POST. A request
// without a session header must be an initialize handshake, which mints a
// fresh session and returns its id in the response header.
func (s *Server) sessionForPost(c *gin.Context, body []byte) (*Session, bool) {
	id := c.GetHeader(headerSessionID)
	if id == "" {
		var probe struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(body, &probe); err != nil || probe.Method != "initialize" {
			c.Data(http.StatusBadRequest, "application/json",
				marshalError(nil, codeInvalidSession, "invalid or missing session id"))
			return nil, false
		}
		sess := s.registry.Create(KindHTTP)
		c.Header(headerSessionID, sess.ID())
		return sess, true
	}

	sess, perr := s.registry.Lookup(id, KindHTTP)
	if perr != nil {
		c.Data(protocolStatus(perr), "application/json", marshalError(nil, perr.Code, perr.Message))
		return nil, false
	}
	return sess, true
}

// handleStream binds a server-to-client event stream to an existing
// session. Frames queued by tool calls are flushed as SSE messages until
// the session closes or the client goes away.
func (s *Server) handleStream(c *gin.Context) {
	sess, perr := s.registry.Lookup(c.GetHeader(headerSessionID), KindHTTP)
	if perr != nil {
		c.Data(protocolStatus(perr), "application/json", marshalError(nil, perr.Code, perr.Message))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	s.log.Debug("event stream opened", zap.String("session", sess.ID()))
	for {
		select {
		case <-sess.Done():
			return
		case <-c.Request.Context().Done():
			// The stream is resumable: dropping it does not close the
			// session. DELETE or the idle reaper reclaims it.
			return
		case frame := <-sess.Events():
			fmt.Fprintf(c.Writer, "event: message\ndata: %s\n\n", frame)
			c.Writer.Flush()
		}
	}
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.GetHeader(headerSessionID)
	if id == "" {
		c.Data(http.StatusBadRequest, "application/json",
			marshalError(nil, codeInvalidSession, "invalid or missing session id"))
		return
	}

	// Terminating a session the other binding owns is still a protocol
	// violation; terminating an unknown or already-closed id is a no-op.
	if sess, perr := s.registry.Lookup(id, KindHTTP); perr != nil && sess == nil {
		if perr.Code == codeWrongTransport {
			c.Data(protocolStatus(perr), "application/json", marshalError(nil, perr.Code, perr.Message))
			return
		}
	}

	s.registry.Close(id)
	c.Status(http.StatusNoContent)
}

// protocolStatus maps a protocol error to its HTTP status.
func protocolStatus(perr *domain.ProtocolError) int {
	switch perr.Code {
	case codeWrongTransport:
		return http.StatusConflict
	case codeInvalidSession:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
