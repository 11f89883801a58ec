// Package chat holds the live side of the server: one Session per
// authenticated connection and the Hub that fans frames out between them.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

// ErrHubClosed is returned by Register after CloseAll.
var ErrHubClosed = errors.New("hub is closed")

type Metrics interface {
	SessionOpened()
	SessionClosed()
	MessageSent(kind string)
	FrameDropped()
}

type nopMetrics struct{}

func (nopMetrics) SessionOpened()     {}
func (nopMetrics) SessionClosed()     {}
func (nopMetrics) MessageSent(string) {}
func (nopMetrics) FrameDropped()      {}

// Hub is the registry of live sessions. Every registry mutation and every
// fan-out pass runs under mu; enqueueing onto a session's outbound queue
// never blocks, so mu is never held across network I/O.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	log     logging.Logger
	metrics Metrics
}

func NewHub(log logging.Logger, m Metrics) *Hub {
	if m == nil {
		m = nopMetrics{}
	}
	return &Hub{
		sessions: make(map[string]*Session),
		log:      log.With("module", "hub"),
		metrics:  m,
	}
}

// Register adds s and announces it to everyone already present. It returns
// how many sessions were registered before s.
func (h *Hub) Register(s *Session) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, ErrHubClosed
	}
	if _, ok := h.sessions[s.id]; ok {
		return len(h.sessions) - 1, nil
	}

	others := len(h.sessions)
	h.fanOut(s, protocol.Join(s.username))
	h.sessions[s.id] = s
	h.metrics.SessionOpened()
	h.log.Info(context.Background(), "session registered", "session_id", s.id, "username", s.username, "active", others+1)
	return others, nil
}

// Deregister removes s and announces its departure. Deregistering a session
// that is not registered is a no-op.
func (h *Hub) Deregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s.id]; !ok {
		return
	}
	delete(h.sessions, s.id)
	s.closeOutbound()
	h.metrics.SessionClosed()
	h.fanOut(s, protocol.Leave(s.username))
	h.log.Info(context.Background(), "session deregistered", "session_id", s.id, "username", s.username, "active", len(h.sessions))
}

// Broadcast queues f for every registered session except from and returns
// the number of sessions it was queued for. A recipient whose queue is full
// misses f.
func (h *Hub) Broadcast(from *Session, f protocol.Frame) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fanOut(from, f)
}

func (h *Hub) fanOut(from *Session, f protocol.Frame) int {
	h.metrics.MessageSent(f.Kind.String())
	delivered := 0
	for id, s := range h.sessions {
		if from != nil && id == from.id {
			continue
		}
		if s.enqueue(f) {
			delivered++
			continue
		}
		h.metrics.FrameDropped()
		h.log.Warn(context.Background(), "outbound queue full, frame dropped",
			"session_id", s.id, "username", s.username, "kind", f.Kind.String())
	}
	return delivered
}

// Count returns the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseAll refuses further registrations and closes every live session's
// connection. Each session then deregisters itself from its read loop.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	live := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		live = append(live, s)
	}
	h.mu.Unlock()

	for _, s := range live {
		_ = s.conn.Close()
	}
}
