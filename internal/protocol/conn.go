package protocol

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/netx"
)

// Conn is a framed view of a byte stream connection. Send may be called
// from several goroutines; Receive must only be called from one.
type Conn struct {
	raw net.Conn
	r   *bufio.Reader

	wmu sync.Mutex
	w   *bufio.Writer

	maxFrameSize int
	idleTimeout  time.Duration

	closeOnce sync.Once
	closeErr  error
}

type Option func(*Conn)

// WithMaxFrameSize limits the payload size accepted by Receive.
func WithMaxFrameSize(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.maxFrameSize = n
		}
	}
}

// WithIdleTimeout makes Receive fail with ErrConnectionClosed when no frame
// arrives within d. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Conn) { c.idleTimeout = d }
}

func NewConn(raw net.Conn, opts ...Option) *Conn {
	c := &Conn{
		raw:          raw,
		r:            bufio.NewReader(raw),
		w:            bufio.NewWriter(raw),
		maxFrameSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send writes f and flushes it to the wire.
func (c *Conn) Send(f Frame) error {
	b, err := Encode(f)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if _, err := c.w.Write(b); err != nil {
		return c.writeError(err)
	}
	if err := c.w.Flush(); err != nil {
		return c.writeError(err)
	}
	return nil
}

// Receive blocks until one whole frame has arrived.
func (c *Conn) Receive() (Frame, error) {
	if c.idleTimeout > 0 {
		if err := c.raw.SetReadDeadline(time.Now().Add(c.idleTimeout)); err != nil {
			return Frame{}, closed(err)
		}
	}
	return ReadFrame(c.r, c.maxFrameSize)
}

// Close closes the underlying connection. Calling it again is a no-op.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}

func (c *Conn) RemoteAddr() string {
	if a := c.raw.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

func (c *Conn) writeError(err error) error {
	// a bufio.Writer keeps failing once it has failed
	c.w.Reset(c.raw)
	if netx.IsClosed(err) {
		return closed(err)
	}
	return ioError(err)
}
