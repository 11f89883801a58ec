package chat

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/filex"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

const (
	msgLoginOK       = "Login was successful."
	msgLoginFailed   = "Login failed, incorrect password."
	msgDisconnected  = "Disconnected from server."
	msgDecryptFailed = "Unable to decrypt message from %s."
)

// Cipher is the optional text encryption layer.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encoded string) (string, error)
}

// console serialises writes from the receive and input goroutines.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// renderer turns incoming frames into console lines, saving File and Image
// payloads under outputDir.
type renderer struct {
	self      string
	outputDir string
	cipher    Cipher
}

func (r *renderer) render(f protocol.Frame) []string {
	switch f.Kind {
	case protocol.KindText:
		if f.Sender != "" && f.Sender == r.self {
			return nil
		}
		return []string{r.text(f)}
	case protocol.KindFile:
		return r.save(f, "a file", "File")
	case protocol.KindImage:
		return r.save(f, "an image", "Image")
	case protocol.KindJoin:
		return []string{fmt.Sprintf("-- %s joined --", f.Username)}
	case protocol.KindLeave:
		return []string{fmt.Sprintf("-- %s left --", f.Username)}
	case protocol.KindInfo:
		return []string{fmt.Sprintf("-- %s --", f.Text)}
	case protocol.KindLoginResult:
		if f.OK {
			return []string{msgLoginOK}
		}
		return []string{msgLoginFailed}
	}
	return nil
}

func (r *renderer) text(f protocol.Frame) string {
	body := f.Text
	if r.cipher != nil {
		plain, err := r.cipher.Decrypt(body)
		if err != nil {
			return fmt.Sprintf(msgDecryptFailed, f.Sender)
		}
		body = plain
	}
	if f.Sender == "" {
		return body
	}
	return fmt.Sprintf("%s: %s", f.Sender, body)
}

func (r *renderer) save(f protocol.Frame, what, label string) []string {
	lines := []string{fmt.Sprintf("%s sent %s %s", f.Sender, what, f.Name)}
	path, err := filex.WriteFile(r.outputDir, f.Name, f.Data)
	if err != nil {
		if errors.Is(err, filex.ErrInvalidName) {
			return append(lines, fmt.Sprintf("%s ignored, invalid name %q.", label, f.Name))
		}
		return append(lines, fmt.Sprintf("%s could not be saved: %v", label, err))
	}
	return append(lines, fmt.Sprintf("%s saved to: %s", label, path))
}
