// Package cryptox holds the password hashing used by the credential store and
// the symmetric cipher behind the client's optional e2e text encryption.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the length of a freshly generated per-user salt.
	SaltSize = 32
	keySize  = 32
)

// textKeySalt is fixed so every client deriving from the same passphrase
// arrives at the same key.
var textKeySalt = []byte("gophchat/e2e-text/v1")

func deriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, keySize)
}

// NewSalt returns SaltSize random bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// HashPassword derives the stored password hash from password and salt.
func HashPassword(password, salt []byte) []byte {
	return deriveKey(password, salt)
}

// VerifyPassword recomputes the hash of candidate with salt and compares it
// to stored in constant time.
func VerifyPassword(candidate, salt, stored []byte) bool {
	hash := HashPassword(candidate, salt)
	defer common.WipeByteArray(hash)
	return subtle.ConstantTimeCompare(hash, stored) == 1
}

// TextCipher encrypts chat text with AES-256-GCM. The wire form is
// base64(nonce || ciphertext) so the result is still valid UTF-8.
type TextCipher struct {
	aead cipher.AEAD
}

// NewTextCipher derives the AES key from passphrase.
func NewTextCipher(passphrase string) (*TextCipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	key := deriveKey([]byte(passphrase), textKeySalt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &TextCipher{aead: aead}, nil
}

func (c *TextCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure (bad encoding, short input, failed
// authentication, non-UTF-8 plaintext) is reported as common.ErrDecrypt.
func (c *TextCipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", common.ErrDecrypt, err)
	}
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return "", fmt.Errorf("%w: message too short", common.ErrDecrypt)
	}
	plaintext, err := c.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecrypt, err)
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: not valid text", common.ErrDecrypt)
	}
	return string(plaintext), nil
}
