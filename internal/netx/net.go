// Package netx holds small networking helpers shared by the chat server and
// client.
package netx

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

// DefaultDialTimeout bounds Dial when the caller's context has no deadline.
const DefaultDialTimeout = 10 * time.Second

// Dial opens a TCP connection to addr.
func Dial(ctx context.Context, addr string) (net.Conn, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDialTimeout)
		defer cancel()
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// IsClosed reports whether err means the peer went away or the connection
// was closed locally, as opposed to some other I/O failure.
func IsClosed(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	return false
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
