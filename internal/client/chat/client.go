package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/netx"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

// ErrDisconnected is returned when the server closes the connection before
// the client is done with it.
var ErrDisconnected = errors.New("disconnected from server")

// ErrTooLarge is reported when a message or attachment exceeds the frame
// size limit.
var ErrTooLarge = errors.New("too large")

// Conn is the framed connection the client talks over.
type Conn interface {
	Send(protocol.Frame) error
	Receive() (protocol.Frame, error)
	Close() error
}

// Prompter supplies credentials for each login attempt.
type Prompter interface {
	Credentials() (username, password string, err error)
}

type Client struct {
	conn         Conn
	console      *console
	renderer     renderer
	log          logging.Logger
	maxFrameSize int
	quitting     atomic.Bool
}

type Option func(*Client)

// WithCipher enables the text encryption layer. A nil cipher leaves it off.
func WithCipher(c Cipher) Option {
	return func(cl *Client) {
		if c != nil {
			cl.renderer.cipher = c
		}
	}
}

// WithMaxFrameSize sets the largest payload the client will send. Longer
// console lines and larger attachments are refused locally. It should match
// the server's limit.
func WithMaxFrameSize(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.maxFrameSize = n
		}
	}
}

// WithOutputDir sets where received files are written.
func WithOutputDir(dir string) Option {
	return func(cl *Client) { cl.renderer.outputDir = dir }
}

func New(conn Conn, out io.Writer, log logging.Logger, opts ...Option) *Client {
	c := &Client{
		conn:         conn,
		console:      &console{out: out},
		renderer:     renderer{outputDir: "."},
		log:          log.With("module", "client"),
		maxFrameSize: protocol.DefaultMaxFrameSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial connects to addr and wraps the socket in a protocol.Conn.
func Dial(ctx context.Context, addr string, out io.Writer, log logging.Logger, opts ...Option) (*Client, error) {
	raw, err := netx.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return New(protocol.NewConn(raw), out, log, opts...), nil
}

// Username is the name of the logged in user, empty before Login succeeds.
func (c *Client) Username() string { return c.renderer.self }

func (c *Client) Close() error { return c.conn.Close() }

// Login sends credentials from p until the server accepts them. Info frames
// received meanwhile are printed. If the server hangs up (store unavailable,
// too many attempts) ErrDisconnected is returned.
func (c *Client) Login(ctx context.Context, p Prompter) error {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	for {
		username, password, err := p.Credentials()
		if err != nil {
			return err
		}
		if err := c.conn.Send(protocol.Login(username, password)); err != nil {
			return c.disconnected(ctx, err)
		}

		ok, err := c.awaitLoginResult(ctx)
		if err != nil {
			return err
		}
		c.print(protocol.LoginResult(ok))
		if ok {
			c.renderer.self = username
			c.log.Info(ctx, "logged in", "username", username)
			return nil
		}
		c.log.Info(ctx, "login rejected", "username", username)
	}
}

func (c *Client) awaitLoginResult(ctx context.Context) (bool, error) {
	for {
		f, err := c.conn.Receive()
		if err != nil {
			return false, c.disconnected(ctx, err)
		}
		switch f.Kind {
		case protocol.KindLoginResult:
			return f.OK, nil
		case protocol.KindInfo:
			c.print(f)
		default:
			c.log.Debug(ctx, "ignoring frame before login", "kind", f.Kind.String())
		}
	}
}

func (c *Client) disconnected(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, protocol.ErrConnectionClosed) {
		c.console.println(msgDisconnected)
		return ErrDisconnected
	}
	return err
}

// Run relays console lines from in and renders incoming frames until the
// user quits, input ends, the server disconnects or ctx is done. Both end
// of input and .quit send a Quit frame first.
func (c *Client) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	recvDone := make(chan error, 1)
	go func() { recvDone <- c.receiveLoop(ctx) }()

	inputDone := make(chan error, 1)
	go func() { inputDone <- c.inputLoop(ctx, in) }()

	select {
	case err := <-recvDone:
		return err
	case err := <-inputDone:
		c.quitting.Store(true)
		_ = c.conn.Close()
		<-recvDone
		return err
	}
}

func (c *Client) receiveLoop(ctx context.Context) error {
	for {
		f, err := c.conn.Receive()
		if err != nil {
			if c.quitting.Load() || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, protocol.ErrConnectionClosed) {
				c.console.println(msgDisconnected)
				return nil
			}
			c.log.Error(ctx, "receive failed", "error", err)
			return err
		}
		c.print(f)
	}
}

func (c *Client) print(f protocol.Frame) {
	for _, line := range c.renderer.render(f) {
		c.console.println(line)
	}
}

func (c *Client) inputLoop(ctx context.Context, in io.Reader) error {
	r := bufio.NewReader(in)
	for {
		line, err := readLine(r, c.maxFrameSize)
		if errors.Is(err, errLineTooLong) {
			c.console.println(fmt.Sprintf("Message not sent, longer than %d bytes.", c.maxFrameSize))
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Warn(ctx, "input failed", "error", err)
			}
			break
		}
		if line == "" {
			continue
		}
		quit, err := c.handleLine(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	c.quitting.Store(true)
	return c.send(protocol.Quit())
}

var errLineTooLong = errors.New("line too long")

// readLine returns the next line without its line ending. A line longer
// than limit is consumed and reported as errLineTooLong. A final line
// without a newline is returned before io.EOF.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if len(buf) > 0 && !tooLong {
				return string(buf), nil
			}
			if tooLong {
				return "", errLineTooLong
			}
			return "", err
		}
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			if tooLong {
				return "", errLineTooLong
			}
			return string(buf), nil
		}
	}
}

// handleLine sends the frame for one console line. Problems with the
// command itself are reported to the console and do not end the loop.
func (c *Client) handleLine(ctx context.Context, line string) (bool, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		c.console.println(fmt.Sprintf("%s: %v", line, err))
		return false, nil
	}
	f, err := cmd.Frame()
	if err != nil {
		c.log.Warn(ctx, "command failed", "line", line, "error", err)
		c.console.println(fmt.Sprintf("Unable to send %s: %v", cmd.Arg, err))
		return false, nil
	}
	if f.Kind == protocol.KindText && c.renderer.cipher != nil {
		sealed, err := c.renderer.cipher.Encrypt(f.Text)
		if err != nil {
			return false, err
		}
		f.Text = sealed
	}
	if n := protocol.PayloadSize(f); n > c.maxFrameSize {
		c.log.Warn(ctx, "frame over size limit", "kind", f.Kind.String(), "size", n, "limit", c.maxFrameSize)
		c.console.println(fmt.Sprintf("Unable to send %s: %v (%d bytes, limit %d)", describe(cmd), ErrTooLarge, n, c.maxFrameSize))
		return false, nil
	}
	if cmd.Kind == CommandQuit {
		c.quitting.Store(true)
	}
	if err := c.send(f); err != nil {
		return false, err
	}
	return cmd.Kind == CommandQuit, nil
}

func describe(cmd Command) string {
	if cmd.Kind == CommandText {
		return "message"
	}
	return cmd.Arg
}

// send drops a closed-connection error; the receive loop reports it.
func (c *Client) send(f protocol.Frame) error {
	err := c.conn.Send(f)
	if err != nil && errors.Is(err, protocol.ErrConnectionClosed) {
		return nil
	}
	return err
}
