package protocol

import (
	"errors"
	"fmt"
)

// Transport error kinds. Match them with errors.Is.
var (
	// ErrConnectionClosed means the peer closed or reset the stream. Terminal.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrMalformed means a tag or length was inconsistent. Terminal.
	ErrMalformed = errors.New("malformed frame")
	// ErrIO is a write failure the caller may log and decide about.
	ErrIO = errors.New("i/o error")
)

// Error is a transport failure of a given Kind caused by Err.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func malformed(format string, args ...any) error {
	return &Error{Kind: ErrMalformed, Err: fmt.Errorf(format, args...)}
}

func closed(err error) error {
	return &Error{Kind: ErrConnectionClosed, Err: err}
}

func ioError(err error) error {
	return &Error{Kind: ErrIO, Err: err}
}
