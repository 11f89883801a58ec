package chat

import (
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/events"
)

// fakeConn blocks in Receive until closed and records what is sent.
type fakeConn struct {
	mu      sync.Mutex
	sent    []protocol.Frame
	sendErr func(protocol.Frame) error

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) Send(f protocol.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		if err := c.sendErr(f); err != nil {
			return err
		}
	}
	c.sent = append(c.sent, f)
	return nil
}

func (c *fakeConn) Receive() (protocol.Frame, error) {
	<-c.closed
	return protocol.Frame{}, &protocol.Error{Kind: protocol.ErrConnectionClosed}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type countingMetrics struct {
	mu      sync.Mutex
	opened  int
	closed  int
	sent    map[string]int
	dropped int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{sent: make(map[string]int)}
}

func (m *countingMetrics) SessionOpened() {
	m.mu.Lock()
	m.opened++
	m.mu.Unlock()
}

func (m *countingMetrics) SessionClosed() {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
}

func (m *countingMetrics) MessageSent(kind string) {
	m.mu.Lock()
	m.sent[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) FrameDropped() {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

func (m *countingMetrics) snapshot() (opened, closed, dropped int, sent map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent = make(map[string]int, len(m.sent))
	for k, v := range m.sent {
		sent[k] = v
	}
	return m.opened, m.closed, m.dropped, sent
}

type sinkRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *sinkRecorder) Emit(e events.Event) bool {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return true
}

func (s *sinkRecorder) kinds() []events.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Kind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestHub(m Metrics) *Hub {
	return NewHub(logging.NewDiscardLogger(), m)
}

func newTestSession(h *Hub, name string, opts ...SessionOption) (*Session, *fakeConn) {
	c := newFakeConn()
	return NewSession(h, c, "id-"+name, name, logging.NewDiscardLogger(), opts...), c
}

// queued drains everything currently waiting in s's outbound queue.
func queued(s *Session) []protocol.Frame {
	var out []protocol.Frame
	for {
		select {
		case f, ok := <-s.out:
			if !ok {
				return out
			}
			out = append(out, f)
		default:
			return out
		}
	}
}
