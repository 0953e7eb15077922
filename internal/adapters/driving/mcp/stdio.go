package mcp

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// maxFrameSize bounds one newline-delimited JSON-RPC frame on the stream
// binding.
const maxFrameSize = 4 * 1024 * 1024

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.runStream(ctx, os.Stdin, os.Stdout)
}

// runStream serves one persistent bidirectional stream. The stream carries
// exactly one session, created up front and closed when the peer
// disconnects or the context ends.
func (s *Server) runStream(ctx context.Context, in io.Reader, out io.Writer) error {
	sess := s.registry.Create(KindStream)
	defer s.registry.Close(sess.ID())

	var writeMu sync.Mutex
	writeFrame := func(frame []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := out.Write(append(frame, '\n')); err != nil {
			s.log.Warn("stream write failed", zap.Error(err))
		}
	}

	// Pump session notifications onto the stream alongside responses.
	go func() {
		for {
			select {
			case <-sess.Done():
				return
			case frame := <-sess.Events():
				writeFrame(frame)
			}
		}
	}()

	lines := make(chan []byte)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-sess.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// Peer disconnected; the deferred close reclaims the
				// session state.
				return nil
			}
			if len(line) == 0 {
				continue
			}
			sess.mu.Lock()
			resp := s.handle(ctx, sess, line)
			sess.mu.Unlock()
			if resp != nil {
				writeFrame(resp)
			}
		}
	}
}
