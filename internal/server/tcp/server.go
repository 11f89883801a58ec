// Package tcp accepts chat connections and runs each one through the login
// handshake and then a chat session.
package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/chat"
)

type Config struct {
	Addr         string
	QueueSize    int
	MaxFrameSize int
	IdleTimeout  time.Duration
}

type Server struct {
	cfg       Config
	handshake *auth.Handshake
	hub       *chat.Hub
	events    chat.EventSink
	log       logging.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

func NewServer(cfg Config, h *auth.Handshake, hub *chat.Hub, events chat.EventSink, log logging.Logger) *Server {
	return &Server{
		cfg:       cfg,
		handshake: h,
		hub:       hub,
		events:    events,
		log:       log.With("module", "tcp"),
	}
}

// Listen binds the configured address. It is the only step allowed to fail
// the process at startup.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled. On return the listener
// and every connection are closed and all connection goroutines have exited.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("tcp server is not listening")
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.log.Info(ctx, "accepting chat connections", "addr", ln.Addr().String())

	var backoff time.Duration
	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			backoff = nextBackoff(backoff)
			s.log.Warn(ctx, "accept failed", "error", err, "retry_in", backoff.String())
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
			}
			break
		}
		backoff = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, raw)
		}()
	}

	s.hub.CloseAll()
	s.wg.Wait()
	s.log.Info(context.Background(), "chat server stopped")
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) handle(ctx context.Context, raw net.Conn) {
	log := s.log.With("remote_addr", raw.RemoteAddr().String())
	conn := protocol.NewConn(raw,
		protocol.WithMaxFrameSize(s.cfg.MaxFrameSize),
		protocol.WithIdleTimeout(s.cfg.IdleTimeout),
	)

	// the session takes over closing on cancel once it runs
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	res, err := s.handshake.Run(ctx, conn)
	stop()
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrConnectionClosed), errors.Is(err, auth.ErrQuit), ctx.Err() != nil:
			log.Debug(ctx, "connection ended during handshake", "error", err)
		default:
			log.Warn(ctx, "handshake failed", "error", err)
		}
		_ = conn.Close()
		return
	}
	log.Info(ctx, "user authenticated", "username", res.User.UserName, "registered", res.Registered)

	session := chat.NewSession(s.hub, conn, res.User.ID, res.User.UserName, log,
		chat.WithQueueSize(s.cfg.QueueSize),
		chat.WithEvents(s.events),
	)
	if err := session.Run(ctx); err != nil && !errors.Is(err, protocol.ErrConnectionClosed) {
		log.Warn(ctx, "session ended with error", "error", err)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}
