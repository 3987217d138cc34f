// Package envelope implements the password-protected file format used by the spritz command.
//
// An envelope is a fixed-size header followed by the Spritz ciphertext of the body:
//
//	magic "SPZ" | version | argon2 time (u32) | argon2 memory KiB (u32) | argon2 threads (u8) | salt (16) | check (8)
//
// Integers are big-endian. The key is derived from the password and salt with Argon2id. The salt is also the IV for
// the body, and check is an 8-byte Spritz MAC of the preceding header bytes, so a wrong password is detected before
// any of the body is decrypted. The body itself is not authenticated.
package envelope

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/codahale/spritz"

	goerrors "github.com/agilira/go-errors"
	"golang.org/x/crypto/argon2"
)

const (
	// Magic is the string which begins every envelope.
	Magic = "SPZ"

	// Version is the current format version.
	Version = 1

	// SaltSize is the size, in bytes, of the random salt.
	SaltSize = 16

	// KeySize is the size, in bytes, of the derived key.
	KeySize = 32

	// CheckSize is the size, in bytes, of the password check.
	CheckSize = 8

	// HeaderSize is the size, in bytes, of an encoded header.
	HeaderSize = len(Magic) + 1 + 4 + 4 + 1 + SaltSize + CheckSize
)

// Bounds on the Argon2id parameters accepted in a header.
const (
	MinMemory = 8
	MaxMemory = 4 << 20 // 4 GiB
	MaxTime   = 64
)

var (
	// ErrBadHeader is returned when an envelope header is malformed or has unacceptable parameters.
	ErrBadHeader = errors.New("envelope: bad header")

	// ErrBadPassword is returned when an envelope was sealed with a different password.
	ErrBadPassword = errors.New("envelope: bad password")
)

// Error codes attached to returned errors.
const (
	ErrCodeBadHeader   = "ENVELOPE_BAD_HEADER"
	ErrCodeBadPassword = "ENVELOPE_BAD_PASSWORD"
	ErrCodeReadFailed  = "ENVELOPE_READ_FAILED"
	ErrCodeWriteFailed = "ENVELOPE_WRITE_FAILED"
)

// Params are the Argon2id parameters used to derive a key from a password.
type Params struct {
	Time    uint32 `toml:"time"`
	Memory  uint32 `toml:"memory"` // KiB
	Threads uint8  `toml:"threads"`
}

// DefaultParams returns Argon2id parameters suitable for interactive use: 3 passes over 64 MiB with 4 threads.
func DefaultParams() Params {
	return Params{Time: 3, Memory: 64 * 1024, Threads: 4}
}

// Validate returns an ErrBadHeader error if the parameters are outside the accepted bounds.
func (p Params) Validate() error {
	switch {
	case p.Time == 0 || p.Time > MaxTime:
		return badHeader(fmt.Sprintf("argon2 time must be between 1 and %d (got %d)", MaxTime, p.Time))
	case p.Memory < MinMemory || p.Memory > MaxMemory:
		return badHeader(fmt.Sprintf("argon2 memory must be between %d and %d KiB (got %d)", MinMemory, MaxMemory, p.Memory))
	case p.Threads == 0:
		return badHeader("argon2 threads must be positive")
	case p.Memory < 8*uint32(p.Threads):
		return badHeader(fmt.Sprintf("argon2 memory must be at least 8 KiB per thread (got %d for %d)", p.Memory, p.Threads))
	}
	return nil
}

// A Header is the decoded header of an envelope.
type Header struct {
	Params
	Salt [SaltSize]byte
}

// NewWriter writes an envelope header to w, with a salt read from rand, and returns an io.Writer which encrypts the
// body to w.
func NewWriter(w io.Writer, password []byte, params Params, rand io.Reader) (io.Writer, error) {
	if err := spritz.CheckNonEmpty("password", password); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	h := Header{Params: params} //nolint:exhaustruct // salt read below
	if _, err := io.ReadFull(rand, h.Salt[:]); err != nil {
		return nil, goerrors.Wrap(err, ErrCodeReadFailed, "failed to generate salt")
	}

	key := h.deriveKey(password)
	header, err := h.appendSealed(make([]byte, 0, HeaderSize), key)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(header); err != nil {
		return nil, goerrors.Wrap(err, ErrCodeWriteFailed, "failed to write envelope header")
	}

	return spritz.EncryptWriter(w, key, h.Salt[:])
}

// NewReader reads and checks an envelope header from r and returns an io.Reader which decrypts the body.
func NewReader(r io.Reader, password []byte) (io.Reader, error) {
	h, key, err := readHeader(r, password)
	if err != nil {
		return nil, err
	}
	return spritz.DecryptReader(r, key, h.Salt[:])
}

// ReadHeader reads an envelope header from r and checks it against password, returning ErrBadPassword if it does not
// match. The body is left unread.
func ReadHeader(r io.Reader, password []byte) (Header, error) {
	h, _, err := readHeader(r, password)
	return h, err
}

func readHeader(r io.Reader, password []byte) (Header, []byte, error) {
	var h Header
	if err := spritz.CheckNonEmpty("password", password); err != nil {
		return h, nil, err
	}

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h, nil, badHeader("envelope is shorter than its header")
		}
		return h, nil, goerrors.Wrap(err, ErrCodeReadFailed, "failed to read envelope header")
	}

	if string(buf[:len(Magic)]) != Magic {
		return h, nil, badHeader("invalid magic bytes")
	}
	b := buf[len(Magic):]

	if v := b[0]; v != Version {
		return h, nil, badHeader(fmt.Sprintf("unsupported version %d", v))
	}
	b = b[1:]

	h.Time = binary.BigEndian.Uint32(b)
	h.Memory = binary.BigEndian.Uint32(b[4:])
	h.Threads = b[8]
	copy(h.Salt[:], b[9:])
	if err := h.Validate(); err != nil {
		return h, nil, err
	}

	key := h.deriveKey(password)
	expected, err := h.appendSealed(make([]byte, 0, HeaderSize), key)
	if err != nil {
		return h, nil, err
	}

	if subtle.ConstantTimeCompare(expected[HeaderSize-CheckSize:], buf[HeaderSize-CheckSize:]) == 0 {
		clear(key)
		richErr := goerrors.New(ErrCodeBadPassword, "password check failed")
		return h, nil, fmt.Errorf("%w: %w", ErrBadPassword, richErr)
	}

	return h, key, nil
}

func (h *Header) deriveKey(password []byte) []byte {
	return argon2.IDKey(password, h.Salt[:], h.Time, h.Memory, h.Threads, KeySize)
}

// appendSealed appends the encoded header, including its check, to b.
func (h *Header) appendSealed(b []byte, key []byte) ([]byte, error) {
	start := len(b)
	b = append(b, Magic...)
	b = append(b, Version)
	b = binary.BigEndian.AppendUint32(b, h.Time)
	b = binary.BigEndian.AppendUint32(b, h.Memory)
	b = append(b, h.Threads)
	b = append(b, h.Salt[:]...)

	check, err := spritz.MAC(key, b[start:], CheckSize)
	if err != nil {
		return nil, err
	}
	return append(b, check...), nil
}

func badHeader(msg string) error {
	richErr := goerrors.New(ErrCodeBadHeader, msg)
	return fmt.Errorf("%w: %w", ErrBadHeader, richErr)
}
