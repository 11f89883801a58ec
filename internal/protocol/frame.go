// Package protocol implements the chat wire format: a tagged, length-prefixed
// frame carried over a byte stream. It knows nothing about chat semantics.
//
// Every frame is
//
//	[1-byte tag][4-byte big-endian payload length][payload]
//
// The low seven bits of the tag select the Kind. When bit 0x80 is set the
// payload begins with [2-byte sender length][sender] and the kind specific
// payload follows.
package protocol

import "fmt"

// Kind identifies the payload layout of a frame.
type Kind byte

const (
	KindText        Kind = 0x01
	KindFile        Kind = 0x02
	KindImage       Kind = 0x03
	KindLogin       Kind = 0x04
	KindLoginResult Kind = 0x05
	KindJoin        Kind = 0x06
	KindLeave       Kind = 0x07
	KindQuit        Kind = 0x08
	KindInfo        Kind = 0x09
)

const (
	senderFlag byte = 0x80
	kindMask   byte = 0x7f

	headerSize = 5

	// DefaultMaxFrameSize caps the payload a receiver is willing to allocate.
	DefaultMaxFrameSize = 32 << 20
)

var kindNames = map[Kind]string{
	KindText:        "text",
	KindFile:        "file",
	KindImage:       "image",
	KindLogin:       "login",
	KindLoginResult: "login_result",
	KindJoin:        "join",
	KindLeave:       "leave",
	KindQuit:        "quit",
	KindInfo:        "info",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(0x%02x)", byte(k))
}

// Valid reports whether k is a known frame kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Frame is one protocol message. Which fields are meaningful depends on Kind:
//
//	Text, Info       Text
//	File, Image      Name, Data
//	Login            Username, Password
//	LoginResult      OK
//	Join, Leave      Username
//	Quit             none
//
// Sender is optional on every kind and is set by the server on relayed frames.
// An empty Data decodes as nil.
type Frame struct {
	Kind     Kind
	Sender   string
	Text     string
	Name     string
	Data     []byte
	Username string
	Password string
	OK       bool
}

func Text(s string) Frame { return Frame{Kind: KindText, Text: s} }

func Info(s string) Frame { return Frame{Kind: KindInfo, Text: s} }

func File(name string, data []byte) Frame { return Frame{Kind: KindFile, Name: name, Data: data} }

func Image(name string, data []byte) Frame { return Frame{Kind: KindImage, Name: name, Data: data} }

func Login(username, password string) Frame {
	return Frame{Kind: KindLogin, Username: username, Password: password}
}

func LoginResult(ok bool) Frame { return Frame{Kind: KindLoginResult, OK: ok} }

func Join(username string) Frame { return Frame{Kind: KindJoin, Username: username} }

func Leave(username string) Frame { return Frame{Kind: KindLeave, Username: username} }

func Quit() Frame { return Frame{Kind: KindQuit} }

// WithSender returns a copy of f attributed to sender.
func (f Frame) WithSender(sender string) Frame {
	f.Sender = sender
	return f
}

// IsChat reports whether f is user content that the hub relays.
func (f Frame) IsChat() bool {
	switch f.Kind {
	case KindText, KindFile, KindImage:
		return true
	}
	return false
}
