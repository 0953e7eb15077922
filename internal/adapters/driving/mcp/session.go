package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/core/domain"
)

// TransportKind identifies which binding owns a session. A session id is
// only ever served by the kind that created it.
type TransportKind int

const (
	// KindStream is the persistent bidirectional stream binding (stdio).
	KindStream TransportKind = iota

	// KindHTTP is the request/response binding with a resumable
	// notification stream.
	KindHTTP
)

func (k TransportKind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// eventBuffer bounds the per-session outbound notification queue.
const eventBuffer = 16

// Session is the per-caller protocol state. Exactly one Session object
// exists per id; requests on one session are serialized by mu while
// different sessions proceed independently.
type Session struct {
	id   string
	kind TransportKind

	// mu serializes message handling for this session.
	mu sync.Mutex

	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	stateMu     sync.Mutex
	lastActive  time.Time
	initialized bool
}

// ID returns the opaque session token.
func (s *Session) ID() string { return s.id }

// Kind returns the owning transport kind.
func (s *Session) Kind() TransportKind { return s.kind }

// Events is the outbound notification stream for this session.
func (s *Session) Events() <-chan []byte { return s.events }

// Done is closed when the session transitions to CLOSED.
func (s *Session) Done() <-chan struct{} { return s.done }

// push queues an outbound frame, dropping it when the session is closed or
// the buffer is full (a slow or absent stream consumer must not block tool
// handling).
func (s *Session) push(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) touch() {
	s.stateMu.Lock()
	s.lastActive = time.Now()
	s.stateMu.Unlock()
}

func (s *Session) idleSince(now time.Time, ttl time.Duration) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return now.Sub(s.lastActive) > ttl
}

func (s *Session) markInitialized() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.initialized {
		return false
	}
	s.initialized = true
	return true
}

func (s *Session) isInitialized() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.initialized
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Registry owns the mapping from session id to session state. It is the
// only mutable shared state of the server; all mutation goes through its
// lock. Closed ids are evicted and never reissued.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *zap.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Create mints a fresh session bound to one transport kind for its lifetime.
func (r *Registry) Create(kind TransportKind) *Session {
	s := &Session{
		id:         uuid.NewString(),
		kind:       kind,
		events:     make(chan []byte, eventBuffer),
		done:       make(chan struct{}),
		lastActive: time.Now(),
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.log.Debug("session created",
		zap.String("session", s.id),
		zap.Stringer("transport", kind))
	return s
}

// Lookup routes an inbound message to its session. Unknown ids and ids
// bound to a different transport kind fail with a ProtocolError and leave
// all state untouched.
func (r *Registry) Lookup(id string, kind TransportKind) (*Session, *domain.ProtocolError) {
	if id == "" {
		return nil, &domain.ProtocolError{Code: codeInvalidSession, Message: "invalid or missing session id"}
	}

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.ProtocolError{Code: codeInvalidSession, Message: "invalid or missing session id"}
	}
	if s.kind != kind {
		return nil, &domain.ProtocolError{Code: codeWrongTransport, Message: "session exists under a different transport"}
	}

	s.touch()
	return s, nil
}

// Close terminates a session and evicts its id. Closing an unknown or
// already-closed id is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	s.close()
	r.log.Debug("session closed", zap.String("session", id))
}

// CloseAll closes every live session, best-effort, during shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for id, s := range sessions {
		s.close()
		r.log.Debug("session closed on shutdown", zap.String("session", id))
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// sweepIdle closes sessions idle beyond ttl and returns how many it closed.
func (r *Registry) sweepIdle(now time.Time, ttl time.Duration) int {
	r.mu.RLock()
	var idle []string
	for id, s := range r.sessions {
		if s.idleSince(now, ttl) {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range idle {
		r.log.Info("reaping idle session", zap.String("session", id))
		r.Close(id)
	}
	return len(idle)
}

// StartReaper periodically evicts idle sessions until the context ends.
func (r *Registry) StartReaper(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.sweepIdle(now, ttl)
			}
		}
	}()
}
