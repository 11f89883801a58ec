package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/events"
	"github.com/google/uuid"
)

// DefaultQueueSize is the outbound queue capacity used when none is given.
const DefaultQueueSize = 256

// Conn is the framed connection a session owns.
type Conn interface {
	Send(protocol.Frame) error
	Receive() (protocol.Frame, error)
	Close() error
}

// EventSink receives persistence and lifecycle events. Emit must not block.
type EventSink interface {
	Emit(events.Event) bool
}

type nopSink struct{}

func (nopSink) Emit(events.Event) bool { return true }

// Session is one authenticated connection. Its read loop relays chat frames
// to the hub; a separate writer goroutine drains the outbound queue onto the
// connection in order.
type Session struct {
	id       string
	userID   string
	username string

	conn   Conn
	hub    *Hub
	events EventSink
	log    logging.Logger
	now    func() time.Time

	outMu     sync.Mutex
	out       chan protocol.Frame
	outClosed bool
}

type SessionOption func(*Session)

func WithQueueSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.out = make(chan protocol.Frame, n)
		}
	}
}

func WithEvents(sink EventSink) SessionOption {
	return func(s *Session) {
		if sink != nil {
			s.events = sink
		}
	}
}

func NewSession(hub *Hub, conn Conn, userID, username string, log logging.Logger, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.NewString(),
		userID:   userID,
		username: username,
		conn:     conn,
		hub:      hub,
		events:   nopSink{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.out == nil {
		s.out = make(chan protocol.Frame, DefaultQueueSize)
	}
	s.log = log.With("session_id", s.id, "username", username)
	return s
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Username() string { return s.username }

// Run registers the session, tells the client how many other users are
// online and serves the connection until the client quits, the connection
// fails or ctx is cancelled. It always deregisters and closes the connection
// before returning. A clean end (Quit or peer close) returns nil.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	others, err := s.hub.Register(s)
	if err != nil {
		_ = s.conn.Close()
		return err
	}
	s.emit(events.KindJoined, "")

	writerDone := make(chan struct{})
	defer func() {
		s.hub.Deregister(s)
		_ = s.conn.Close()
		<-writerDone
		s.emit(events.KindLeft, "")
	}()

	if err := s.conn.Send(protocol.Info(fmt.Sprintf("Active users: %d", others))); err != nil {
		close(writerDone)
		return err
	}
	go s.writeLoop(writerDone)

	return s.readLoop(ctx)
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		f, err := s.conn.Receive()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, protocol.ErrConnectionClosed):
				s.log.Debug(ctx, "connection closed", "error", err)
				return nil
			default:
				s.log.Warn(ctx, "closing session on transport error", "error", err)
				return err
			}
		}

		switch f.Kind {
		case protocol.KindText, protocol.KindFile, protocol.KindImage:
			n := s.hub.Broadcast(s, f.WithSender(s.username))
			s.log.Debug(ctx, "relayed frame", "kind", f.Kind.String(), "recipients", n)
			if f.Kind == protocol.KindText {
				s.emit(events.KindMessage, f.Text)
			}
		case protocol.KindQuit:
			s.log.Info(ctx, "client quit")
			return nil
		default:
			s.log.Debug(ctx, "ignoring frame", "kind", f.Kind.String())
		}
	}
}

// writeLoop sends queued frames until the queue is closed. After the first
// write failure it closes the connection, which ends the read loop, and
// discards the rest.
func (s *Session) writeLoop(done chan<- struct{}) {
	defer close(done)

	failed := false
	for f := range s.out {
		if failed {
			continue
		}
		if err := s.conn.Send(f); err != nil {
			failed = true
			s.log.Warn(context.Background(), "write failed, closing session", "kind", f.Kind.String(), "error", err)
			_ = s.conn.Close()
		}
	}
}

// enqueue offers f to the outbound queue without blocking.
func (s *Session) enqueue(f protocol.Frame) bool {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.outClosed {
		return false
	}
	select {
	case s.out <- f:
		return true
	default:
		return false
	}
}

func (s *Session) closeOutbound() {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if !s.outClosed {
		s.outClosed = true
		close(s.out)
	}
}

func (s *Session) emit(kind events.Kind, text string) {
	s.events.Emit(events.Event{
		Kind:      kind,
		SessionID: s.id,
		UserID:    s.userID,
		Username:  s.username,
		Text:      text,
		Timestamp: s.now().UTC(),
	})
}
