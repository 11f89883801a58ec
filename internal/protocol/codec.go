package protocol

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

const (
	loginOK     byte = 0
	loginFailed byte = 1
)

// Encode serializes f into a complete frame, header included.
func Encode(f Frame) ([]byte, error) {
	if err := validate(f); err != nil {
		return nil, err
	}

	var payload []byte
	var err error
	tag := byte(f.Kind)
	if f.Sender != "" {
		tag |= senderFlag
		if payload, err = appendString16(payload, f.Sender); err != nil {
			return nil, err
		}
	}

	switch f.Kind {
	case KindText, KindInfo:
		payload = append(payload, f.Text...)
	case KindJoin, KindLeave:
		payload = append(payload, f.Username...)
	case KindFile, KindImage:
		if payload, err = appendString16(payload, f.Name); err != nil {
			return nil, err
		}
		if uint64(len(f.Data)) > math.MaxUint32 {
			return nil, malformed("data too long: %d bytes", len(f.Data))
		}
		payload = binary.BigEndian.AppendUint32(payload, uint32(len(f.Data)))
		payload = append(payload, f.Data...)
	case KindLogin:
		if payload, err = appendString16(payload, f.Username); err != nil {
			return nil, err
		}
		if payload, err = appendString16(payload, f.Password); err != nil {
			return nil, err
		}
	case KindLoginResult:
		if f.OK {
			payload = append(payload, loginOK)
		} else {
			payload = append(payload, loginFailed)
		}
	case KindQuit:
	}

	if uint64(len(payload)) > math.MaxUint32 {
		return nil, malformed("payload too long: %d bytes", len(payload))
	}
	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, tag)
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...), nil
}

// PayloadSize is the payload length Encode produces for a valid f, header
// excluded. It lets callers check a size limit without encoding.
func PayloadSize(f Frame) int {
	n := 0
	if f.Sender != "" {
		n += 2 + len(f.Sender)
	}
	switch f.Kind {
	case KindText, KindInfo:
		n += len(f.Text)
	case KindJoin, KindLeave:
		n += len(f.Username)
	case KindFile, KindImage:
		n += 2 + len(f.Name) + 4 + len(f.Data)
	case KindLogin:
		n += 2 + len(f.Username) + 2 + len(f.Password)
	case KindLoginResult:
		n++
	}
	return n
}

// Decode parses exactly one complete frame from b.
func Decode(b []byte) (Frame, error) {
	if len(b) < headerSize {
		return Frame{}, malformed("short header: %d bytes", len(b))
	}
	n := binary.BigEndian.Uint32(b[1:headerSize])
	if uint64(len(b)-headerSize) != uint64(n) {
		return Frame{}, malformed("declared length %d, got %d bytes", n, len(b)-headerSize)
	}
	return decodePayload(b[0], b[headerSize:])
}

// ReadFrame blocks until a full frame has been read from r. It never returns
// a partial frame. A payload longer than maxSize is rejected before it is
// allocated; maxSize <= 0 selects DefaultMaxFrameSize.
func ReadFrame(r io.Reader, maxSize int) (Frame, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, closed(err)
	}
	if !Kind(hdr[0] & kindMask).Valid() {
		return Frame{}, malformed("unknown tag 0x%02x", hdr[0])
	}
	n := binary.BigEndian.Uint32(hdr[1:])
	if uint64(n) > uint64(maxSize) {
		return Frame{}, malformed("payload of %d bytes exceeds limit %d", n, maxSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, closed(err)
	}
	return decodePayload(hdr[0], payload)
}

// WriteFrame encodes f and writes it to w in one call.
func WriteFrame(w io.Writer, f Frame) error {
	b, err := Encode(f)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return ioError(err)
	}
	return nil
}

func decodePayload(tag byte, payload []byte) (Frame, error) {
	f := Frame{Kind: Kind(tag & kindMask)}
	if !f.Kind.Valid() {
		return Frame{}, malformed("unknown tag 0x%02x", tag)
	}

	p := reader{b: payload}
	if tag&senderFlag != 0 {
		f.Sender = p.string16("sender")
		if p.err == nil && f.Sender == "" {
			p.fail("empty sender with sender flag set")
		}
	}

	switch f.Kind {
	case KindText, KindInfo:
		f.Text = p.rest("text")
	case KindJoin, KindLeave:
		f.Username = p.rest("username")
	case KindFile, KindImage:
		f.Name = p.string16("name")
		f.Data = p.bytes32("data")
	case KindLogin:
		f.Username = p.string16("username")
		f.Password = p.string16("password")
	case KindLoginResult:
		switch p.octet("login result") {
		case loginOK:
			f.OK = true
		case loginFailed:
		default:
			p.fail("login result byte must be 0 or 1")
		}
	case KindQuit:
	}

	if p.err == nil && len(p.b) != 0 {
		p.fail("%d trailing bytes in %s frame", len(p.b), f.Kind)
	}
	if p.err != nil {
		return Frame{}, p.err
	}
	return f, nil
}

// validate rejects frames whose text fields would not survive decoding.
func validate(f Frame) error {
	if !f.Kind.Valid() {
		return malformed("unknown kind %s", f.Kind)
	}
	for _, field := range [...]struct{ name, value string }{
		{"sender", f.Sender},
		{"text", f.Text},
		{"name", f.Name},
		{"username", f.Username},
		{"password", f.Password},
	} {
		if !utf8.ValidString(field.value) {
			return malformed("%s is not valid UTF-8", field.name)
		}
	}
	return nil
}

func appendString16(dst []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, malformed("field too long: %d bytes", len(s))
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	return append(dst, s...), nil
}

// reader consumes a payload front to back. The first failure sticks and
// every later call becomes a no-op.
type reader struct {
	b   []byte
	err error
}

func (r *reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = malformed(format, args...)
	}
}

func (r *reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b) < n {
		r.fail("%s: need %d bytes, have %d", what, n, len(r.b))
		return nil
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *reader) octet(what string) byte {
	b := r.take(1, what)
	if b == nil {
		return loginFailed + 1
	}
	return b[0]
}

func (r *reader) text(b []byte, what string) string {
	if r.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.fail("%s is not valid UTF-8", what)
		return ""
	}
	return string(b)
}

func (r *reader) string16(what string) string {
	l := r.take(2, what+" length")
	if l == nil {
		return ""
	}
	return r.text(r.take(int(binary.BigEndian.Uint16(l)), what), what)
}

func (r *reader) bytes32(what string) []byte {
	l := r.take(4, what+" length")
	if l == nil {
		return nil
	}
	n := binary.BigEndian.Uint32(l)
	if uint64(n) > uint64(len(r.b)) {
		r.fail("%s: declared %d bytes, have %d", what, n, len(r.b))
		return nil
	}
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.take(int(n), what))
	return out
}

func (r *reader) rest(what string) string {
	b := r.b
	r.b = nil
	return r.text(b, what)
}
