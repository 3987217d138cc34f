// Package digest provides streaming hash.Hash implementations of Spritz's Hash and MAC.
package digest

import (
	"hash"

	"github.com/codahale/spritz"
)

// Size is the size, in bytes, of the digest returned by New256 and Sum256.
const Size = 32

// New returns a new hash.Hash which computes size-byte Spritz hashes. For any non-empty message M, Sum(nil) returns
// the same value as spritz.Hash(M, size). The size must be between 1 and spritz.MaxSize.
func New(size int) (hash.Hash, error) {
	if err := spritz.CheckSize(size); err != nil {
		return nil, err
	}
	d := &digest{size: size} //nolint:exhaustruct // initialized via Reset
	d.Reset()
	return d, nil
}

// New256 returns a new hash.Hash which computes 32-byte Spritz hashes.
func New256() hash.Hash {
	h, _ := New(Size)
	return h
}

// Sum256 returns the 32-byte Spritz hash of data.
func Sum256(data []byte) [Size]byte {
	var sum [Size]byte
	h := New256()
	_, _ = h.Write(data)
	h.Sum(sum[:0])
	return sum
}

// NewMAC returns a new hash.Hash which computes size-byte Spritz MACs under the given key. For any non-empty message
// M, Sum(nil) returns the same value as spritz.MAC(key, M, size). Since MAC and DomHash share a construction, passing a
// domain name as the key yields spritz.DomHash.
func NewMAC(key []byte, size int) (hash.Hash, error) {
	if err := spritz.CheckNonEmpty("key", key); err != nil {
		return nil, err
	}
	if err := spritz.CheckSize(size); err != nil {
		return nil, err
	}
	d := &digest{size: size, key: append([]byte(nil), key...)} //nolint:exhaustruct // initialized via Reset
	d.Reset()
	return d, nil
}

type digest struct {
	s    spritz.State
	key  []byte
	size int
}

func (d *digest) Write(p []byte) (n int, err error) {
	return d.s.Write(p)
}

func (d *digest) Sum(b []byte) []byte {
	s := d.s
	defer s.Clear()

	s.AbsorbStop()
	s.AbsorbByte(byte(d.size))
	return s.Squeeze(b, d.size)
}

func (d *digest) Reset() {
	d.s.Init()
	if d.key != nil {
		_, _ = d.s.Write(d.key)
		d.s.AbsorbStop()
	}
}

func (d *digest) Size() int {
	return d.size
}

func (d *digest) BlockSize() int {
	return 1 // Spritz absorbs a byte at a time
}

var _ hash.Hash = (*digest)(nil)
