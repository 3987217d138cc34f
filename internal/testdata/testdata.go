// Package testdata provides a deterministic random bit generator for tests.
package testdata

import (
	"crypto/sha3"
	"io"
)

// A DRBG is a deterministic stream of pseudorandom bytes, seeded with a string.
type DRBG struct {
	h *sha3.SHAKE
}

// New returns a DRBG seeded with the given domain string.
func New(domain string) *DRBG {
	h := sha3.NewSHAKE128()
	_, _ = h.Write([]byte(domain))
	return &DRBG{h: h}
}

// Data returns the next n bytes of output.
func (d *DRBG) Data(n int) []byte {
	b := make([]byte, n)
	_, _ = d.h.Read(b)
	return b
}

// Read fills p with the next len(p) bytes of output. It never returns an error.
func (d *DRBG) Read(p []byte) (n int, err error) {
	return d.h.Read(p)
}

var _ io.Reader = (*DRBG)(nil)
