// Package auth drives the server side of the login handshake: a client sends
// Login frames until one is accepted. Unknown users are registered on the
// spot; a wrong password is answered with a failed LoginResult and the
// connection stays open for the next attempt.
package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
)

const (
	MsgStoreUnavailable = "Authentication service unavailable, please try again later."
	MsgTooManyAttempts  = "Too many failed login attempts."
)

// ErrQuit is returned when the client sends Quit before authenticating.
var ErrQuit = errors.New("client quit during handshake")

// Login attempt outcomes reported to Metrics.
const (
	ResultOK         = "ok"
	ResultRegistered = "registered"
	ResultRejected   = "rejected"
	ResultError      = "error"
)

type State int

const (
	AwaitingUsername State = iota
	AwaitingPassword
	Authenticated
	Rejected
)

func (s State) String() string {
	switch s {
	case AwaitingUsername:
		return "awaiting_username"
	case AwaitingPassword:
		return "awaiting_password"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*services.Authentication, error)
}

// FrameConn is the part of protocol.Conn the handshake needs.
type FrameConn interface {
	Send(protocol.Frame) error
	Receive() (protocol.Frame, error)
}

type Metrics interface {
	LoginAttempt(result string)
}

type nopMetrics struct{}

func (nopMetrics) LoginAttempt(string) {}

// Result describes an authenticated connection.
type Result struct {
	User       *models.User
	Registered bool
	// Failures counts the rejected attempts before the accepted one.
	Failures int
}

type Handshake struct {
	auth        Authenticator
	log         logging.Logger
	metrics     Metrics
	maxAttempts int
}

type Option func(*Handshake)

// WithMaxAttempts closes the handshake after n rejected logins. Zero or a
// negative n means unlimited.
func WithMaxAttempts(n int) Option {
	return func(h *Handshake) { h.maxAttempts = n }
}

func WithMetrics(m Metrics) Option {
	return func(h *Handshake) {
		if m != nil {
			h.metrics = m
		}
	}
}

func NewHandshake(a Authenticator, log logging.Logger, opts ...Option) *Handshake {
	h := &Handshake{auth: a, log: log, metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run blocks until conn authenticates or the handshake fails. Transport
// errors are returned as is. A credential store failure is reported to the
// client with an Info frame and returned as common.ErrCredentialStoreUnavailable.
// The caller owns conn and closes it on error.
func (h *Handshake) Run(ctx context.Context, conn FrameConn) (*Result, error) {
	var (
		state    = AwaitingUsername
		login    protocol.Frame
		result   *Result
		failures int
	)

	for {
		switch state {
		case AwaitingUsername:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			f, err := conn.Receive()
			if err != nil {
				return nil, err
			}
			switch f.Kind {
			case protocol.KindLogin:
				login = f
				state = AwaitingPassword
			case protocol.KindQuit:
				return nil, ErrQuit
			default:
				h.log.Debug(ctx, "ignoring frame before login", "kind", f.Kind.String())
			}

		case AwaitingPassword:
			a, err := h.auth.Authenticate(ctx, login.Username, login.Password)
			switch {
			case err == nil:
				if err := conn.Send(protocol.LoginResult(true)); err != nil {
					return nil, err
				}
				if a.Registered {
					h.metrics.LoginAttempt(ResultRegistered)
				} else {
					h.metrics.LoginAttempt(ResultOK)
				}
				result = &Result{User: a.User, Registered: a.Registered, Failures: failures}
				state = Authenticated
			case errors.Is(err, common.ErrorUnauthorized):
				h.metrics.LoginAttempt(ResultRejected)
				state = Rejected
			default:
				h.metrics.LoginAttempt(ResultError)
				h.log.Error(ctx, "credential store failure", "username", login.Username, "error", err)
				if sendErr := conn.Send(protocol.Info(MsgStoreUnavailable)); sendErr != nil {
					h.log.Warn(ctx, "unable to notify client", "error", sendErr)
				}
				return nil, err
			}

		case Rejected:
			failures++
			h.log.Info(ctx, "login rejected", "username", login.Username, "failures", failures)
			if err := conn.Send(protocol.LoginResult(false)); err != nil {
				return nil, err
			}
			if h.maxAttempts > 0 && failures >= h.maxAttempts {
				if err := conn.Send(protocol.Info(MsgTooManyAttempts)); err != nil {
					h.log.Warn(ctx, "unable to notify client", "error", err)
				}
				return nil, common.ErrTooManyAttempts
			}
			login = protocol.Frame{}
			state = AwaitingUsername

		case Authenticated:
			return result, nil
		}
	}
}
