// Package mem provides slice helpers shared by the spritz packages.
package mem

import (
	"slices"
)

// Add sets dst[i] to a[i]+b[i] modulo 256, for each index of dst. dst may alias a or b.
func Add(dst, a, b []byte) {
	for i := range dst {
		dst[i] = byte((uint(a[i]) + uint(b[i])) % 256)
	}
}

// Sub sets dst[i] to a[i]-b[i] modulo 256, for each index of dst. dst may alias a or b.
func Sub(dst, a, b []byte) {
	for i := range dst {
		dst[i] = byte((256 + uint(a[i]) - uint(b[i])) % 256)
	}
}

// SliceForAppend takes a slice and a requested number of bytes. It returns a
// slice with the contents of the given slice followed by that many bytes and a
// second slice that aliases into it and contains only the extra bytes. If the
// original slice has sufficient capacity, then no allocation is performed.
func SliceForAppend(in []byte, n int) (head, tail []byte) {
	head = slices.Grow(in, n)
	head = head[:len(in)+n]
	tail = head[len(in):]
	return head, tail
}
