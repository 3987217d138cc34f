package spritz

import (
	"errors"
	"io"

	"github.com/codahale/spritz/internal/mem"
)

// A Keystream is the output of a keyed State, consumed incrementally. Encrypting a message in pieces with a Keystream
// produces the same ciphertext as Encrypt (or EncryptWithIV) on the whole message, however the pieces are split.
//
// Keystream instances are not concurrent-safe.
type Keystream struct {
	s   State
	buf []byte
}

// NewKeystream returns a Keystream for the given key and IV. The key must not be empty. If iv is empty, the keystream
// is the one used by Encrypt; otherwise, it is the one used by EncryptWithIV.
func NewKeystream(key, iv []byte) (*Keystream, error) {
	if err := CheckNonEmpty("key", key); err != nil {
		return nil, err
	}
	return &Keystream{s: *keySetup(key, iv), buf: nil}, nil
}

// Read fills p with keystream bytes. It always returns len(p), nil.
func (ks *Keystream) Read(p []byte) (n int, err error) {
	for i := range p {
		p[i] = ks.s.drip()
	}
	return len(p), nil
}

// Encrypt adds the next len(src) keystream bytes to src modulo N and writes the result to dst. dst and src may be the
// same slice. Encrypt panics if dst is shorter than src.
func (ks *Keystream) Encrypt(dst, src []byte) {
	ks.apply(dst, src, mem.Add)
}

// Decrypt subtracts the next len(src) keystream bytes from src modulo N and writes the result to dst. dst and src may
// be the same slice. Decrypt panics if dst is shorter than src.
func (ks *Keystream) Decrypt(dst, src []byte) {
	ks.apply(dst, src, mem.Sub)
}

func (ks *Keystream) apply(dst, src []byte, f func(dst, a, b []byte)) {
	if len(dst) < len(src) {
		panic("spritz: output smaller than input")
	}
	for len(src) > 0 {
		n := min(len(src), maxChunk)
		ks.buf = ks.s.squeeze(ks.buf[:0], n)
		f(dst[:n], src[:n], ks.buf)
		dst, src = dst[n:], src[n:]
	}
}

// EncryptWriter returns an io.Writer which encrypts everything written to it with the given key and IV and writes the
// ciphertext to w. Written slices are copied before encrypting and are never modified. See NewKeystream for the
// handling of an empty IV.
//
// If a Write call returns an error, the keystream is out of sync with w and the writer must be discarded.
func EncryptWriter(w io.Writer, key, iv []byte) (io.Writer, error) {
	ks, err := NewKeystream(key, iv)
	if err != nil {
		return nil, err
	}
	return &cryptWriter{f: ks.Encrypt, w: w, buf: nil}, nil
}

// DecryptWriter returns an io.Writer which decrypts everything written to it with the given key and IV and writes the
// plaintext to w.
func DecryptWriter(w io.Writer, key, iv []byte) (io.Writer, error) {
	ks, err := NewKeystream(key, iv)
	if err != nil {
		return nil, err
	}
	return &cryptWriter{f: ks.Decrypt, w: w, buf: nil}, nil
}

// EncryptReader returns an io.Reader which encrypts whatever is read from r with the given key and IV.
func EncryptReader(r io.Reader, key, iv []byte) (io.Reader, error) {
	ks, err := NewKeystream(key, iv)
	if err != nil {
		return nil, err
	}
	return &cryptReader{f: ks.Encrypt, r: r}, nil
}

// DecryptReader returns an io.Reader which decrypts whatever is read from r with the given key and IV.
func DecryptReader(r io.Reader, key, iv []byte) (io.Reader, error) {
	ks, err := NewKeystream(key, iv)
	if err != nil {
		return nil, err
	}
	return &cryptReader{f: ks.Decrypt, r: r}, nil
}

type cryptWriter struct {
	f   func(dst, src []byte)
	w   io.Writer
	buf []byte
}

func (c *cryptWriter) Write(p []byte) (n int, err error) {
	c.buf = append(c.buf[:0], p...)
	c.f(c.buf, c.buf)
	for n < len(c.buf) {
		nn, err := c.w.Write(c.buf[n:])
		n += nn
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return n, err
		}
		if nn == 0 {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

type cryptReader struct {
	f func(dst, src []byte)
	r io.Reader
}

func (c *cryptReader) Read(p []byte) (n int, err error) {
	n, err = c.r.Read(p)
	c.f(p[:n], p[:n])
	return n, err
}

// maxChunk bounds the keystream buffer held by a Keystream.
const maxChunk = 4096

var (
	_ io.Reader = (*Keystream)(nil)
	_ io.Writer = (*cryptWriter)(nil)
	_ io.Reader = (*cryptReader)(nil)
)
