// Package aead provides an implementation of Authenticated Encryption with Associated Data (AEAD) using the Spritz
// AEAD mode from Rivest and Schuldt's paper.
//
// The key, nonce, and associated data are absorbed as separate fields. The message is then processed in blocks of
// N/4 bytes: each block is encrypted with a squeezed keystream and the ciphertext block is absorbed back into the
// state. Finally, the tag length is absorbed and the tag is squeezed.
package aead

import (
	"crypto/cipher"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/codahale/spritz"
	"github.com/codahale/spritz/internal/mem"

	goerrors "github.com/agilira/go-errors"
)

const (
	// NonceSize is the default nonce size, in bytes.
	NonceSize = 16

	// TagSize is the default tag size, in bytes.
	TagSize = 32

	// BlockSize is the size, in bytes, of the message blocks which are encrypted and absorbed.
	BlockSize = spritz.N / 4
)

// ErrInvalidCiphertext is returned when the ciphertext is invalid or has been decrypted with the wrong key, nonce, or
// associated data.
var ErrInvalidCiphertext = errors.New("spritz/aead: invalid ciphertext")

// ErrCodeInvalidCiphertext is the error code attached to ErrInvalidCiphertext errors.
const ErrCodeInvalidCiphertext = "SPRITZ_INVALID_CIPHERTEXT"

// New returns a new cipher.AEAD instance with the given key, nonce size, and tag size. The key must not be empty, the
// nonce size must be positive, and the tag size must be between 1 and spritz.MaxSize.
func New(key []byte, nonceSize, tagSize int) (cipher.AEAD, error) {
	if err := spritz.CheckNonEmpty("key", key); err != nil {
		return nil, err
	}
	if nonceSize < 1 {
		richErr := goerrors.New(spritz.ErrCodeInvalidSize, fmt.Sprintf("nonce size must be positive (got %d)", nonceSize))
		return nil, fmt.Errorf("%w: %w", spritz.ErrInvalidSize, richErr)
	}
	if err := spritz.CheckSize(tagSize); err != nil {
		return nil, err
	}

	a := &aead{nonceSize: nonceSize, tagSize: tagSize} //nolint:exhaustruct // base initialized below
	a.base.Init()
	_, _ = a.base.Write(key)
	a.base.AbsorbStop()
	return a, nil
}

// NewDefault returns a new cipher.AEAD instance with the given key, a 16-byte nonce, and a 32-byte tag.
func NewDefault(key []byte) (cipher.AEAD, error) {
	return New(key, NonceSize, TagSize)
}

type aead struct {
	base      spritz.State
	nonceSize int
	tagSize   int
}

func (a *aead) NonceSize() int {
	return a.nonceSize
}

func (a *aead) Overhead() int {
	return a.tagSize
}

func (a *aead) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	if len(nonce) != a.nonceSize {
		panic("spritz/aead: invalid nonce size")
	}

	s := a.start(nonce, additionalData)
	defer s.Clear()

	ret, out := mem.SliceForAppend(dst, len(plaintext)+a.tagSize)
	ciphertext, tag := out[:len(plaintext)], out[len(plaintext):]

	var ks [BlockSize]byte
	for off := 0; off < len(plaintext); off += BlockSize {
		end := min(off+BlockSize, len(plaintext))
		s.Squeeze(ks[:0], end-off)
		mem.Add(ciphertext[off:end], plaintext[off:end], ks[:end-off])
		_, _ = s.Write(ciphertext[off:end])
	}

	a.finish(&s, tag[:0])
	return ret
}

func (a *aead) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != a.nonceSize {
		panic("spritz/aead: invalid nonce size")
	}

	if len(ciphertext) < a.tagSize {
		return nil, invalidCiphertext("ciphertext is shorter than the tag")
	}

	s := a.start(nonce, additionalData)
	defer s.Clear()

	ciphertext, receivedTag := ciphertext[:len(ciphertext)-a.tagSize], ciphertext[len(ciphertext)-a.tagSize:]
	ret, plaintext := mem.SliceForAppend(dst, len(ciphertext))

	var ks [BlockSize]byte
	for off := 0; off < len(ciphertext); off += BlockSize {
		end := min(off+BlockSize, len(ciphertext))
		s.Squeeze(ks[:0], end-off)
		_, _ = s.Write(ciphertext[off:end]) // absorb before decrypting, which may overwrite in place
		mem.Sub(plaintext[off:end], ciphertext[off:end], ks[:end-off])
	}

	expectedTag := a.finish(&s, make([]byte, 0, spritz.MaxSize))
	if subtle.ConstantTimeCompare(receivedTag, expectedTag) == 0 {
		clear(plaintext)
		return nil, invalidCiphertext("tag mismatch")
	}
	return ret, nil
}

func (a *aead) start(nonce, additionalData []byte) spritz.State {
	s := a.base
	_, _ = s.Write(nonce)
	s.AbsorbStop()
	_, _ = s.Write(additionalData)
	s.AbsorbStop()
	return s
}

func (a *aead) finish(s *spritz.State, dst []byte) []byte {
	s.AbsorbStop()
	s.AbsorbByte(byte(a.tagSize))
	return s.Squeeze(dst, a.tagSize)
}

func invalidCiphertext(msg string) error {
	richErr := goerrors.New(ErrCodeInvalidCiphertext, msg)
	return fmt.Errorf("%w: %w", ErrInvalidCiphertext, richErr)
}

var _ cipher.AEAD = (*aead)(nil)
