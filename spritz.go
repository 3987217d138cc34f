// Package spritz implements Spritz, the spongy RC4-like stream cipher and hash function described by Rivest and
// Schuldt in [RS14].
//
// The package exposes both the permutation engine ([State], with the paper's InitializeState, Absorb, AbsorbStop,
// Shuffle, Whip, Crush, Squeeze, Drip, Update, and Output primitives) and the modes built on top of it: [Hash],
// [DomHash], [MAC], [Encrypt], [Decrypt], [EncryptWithIV], and [DecryptWithIV]. The digest and aead subpackages adapt
// the same primitives to hash.Hash and cipher.AEAD.
//
// Hash lengths are absorbed as a single byte, so hashes and MACs are limited to [MaxSize] bytes. Encryption is
// byte-wise addition modulo 256 of the plaintext and the keystream; it is not authenticated (see the aead package).
//
// [RS14]: https://people.csail.mit.edu/rivest/pubs/RS14.pdf
package spritz

const (
	// N is the size of the permutation. All index arithmetic is done modulo N.
	N = 256

	// MaxSize is the largest output length, in bytes, of Hash, DomHash, and MAC.
	MaxSize = 255
)
