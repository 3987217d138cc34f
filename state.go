package spritz

import (
	"crypto/subtle"
	"encoding"
	"encoding/hex"
	"fmt"

	"github.com/codahale/spritz/internal/mem"
)

// A State is the Spritz permutation engine: five byte registers and a permutation of 0..N-1.
//
// The zero value is uninitialized. Init (or NewState) must be called before any other primitive; calling a primitive on
// an uninitialized State panics. States are not safe for concurrent use, but hold no pointers, so a State can be cloned
// by copying it.
type State struct {
	i, j, k, z, w, a byte
	s                [N]byte
	ready            bool
}

// NewState returns an initialized State.
func NewState() *State {
	s := new(State)
	s.init()
	return s
}

// Init resets the registers to zero, sets w to 1, and sets the permutation to the identity. It is the paper's
// InitializeState.
func (s *State) Init() {
	s.init()
}

// Absorb absorbs each byte of data. It returns ErrEmptyInput if data is empty.
func (s *State) Absorb(data []byte) error {
	s.mustBeReady()
	if len(data) == 0 {
		return emptyInput("data")
	}
	s.absorb(data)
	return nil
}

// Write absorbs p. Unlike Absorb, it accepts empty input. It implements io.Writer and never returns an error.
func (s *State) Write(p []byte) (int, error) {
	s.mustBeReady()
	s.absorb(p)
	return len(p), nil
}

// AbsorbByte absorbs the low nibble of b, then the high nibble.
func (s *State) AbsorbByte(b byte) {
	s.mustBeReady()
	s.absorbByte(b)
}

// AbsorbNibble absorbs the nibble x, shuffling first if half the permutation has been absorbed into.
func (s *State) AbsorbNibble(x byte) {
	s.mustBeReady()
	s.absorbNibble(x)
}

// AbsorbStop advances the absorption counter without a swap, separating one absorbed field from the next.
func (s *State) AbsorbStop() {
	s.mustBeReady()
	s.absorbStop()
}

// Shuffle runs Whip(2N), Crush, Whip(2N), Crush, Whip(2N) and resets the absorption counter.
func (s *State) Shuffle() {
	s.mustBeReady()
	s.shuffle()
}

// Whip runs r updates, then advances w to the next value coprime with N.
func (s *State) Whip(r int) {
	s.mustBeReady()
	s.whip(r)
}

// Crush makes a single pass over the two halves of the permutation, swapping S[v] and S[N-1-v] where S[v] is larger.
func (s *State) Crush() {
	s.mustBeReady()
	s.crush()
}

// Squeeze appends n bytes of output to dst and returns the resulting slice, shuffling first if any data has been
// absorbed since the last shuffle.
//
// Squeeze panics if n is negative.
func (s *State) Squeeze(dst []byte, n int) []byte {
	s.mustBeReady()
	if n < 0 {
		panic("spritz: negative squeeze length")
	}
	return s.squeeze(dst, n)
}

// Drip returns a single byte of output, shuffling first if any data has been absorbed since the last shuffle.
func (s *State) Drip() byte {
	s.mustBeReady()
	return s.drip()
}

// Update advances i by w, updates j and k, and swaps S[i] and S[j].
func (s *State) Update() {
	s.mustBeReady()
	s.update()
}

// Output computes and returns the next value of z.
func (s *State) Output() byte {
	s.mustBeReady()
	return s.output()
}

// Snapshot returns a copy of the registers and the permutation. It returns ErrUninitialized if Init has not been
// called.
func (s *State) Snapshot() (Snapshot, error) {
	if !s.ready {
		return Snapshot{}, uninitialized()
	}
	return Snapshot{I: s.i, J: s.j, K: s.k, Z: s.z, W: s.w, A: s.a, S: s.s}, nil
}

// Equal returns 1 if s and s2 are equal, and 0 otherwise.
func (s *State) Equal(s2 *State) int {
	return subtle.ConstantTimeCompare(s.s[:], s2.s[:]) &
		subtle.ConstantTimeCompare([]byte{s.i, s.j, s.k, s.z, s.w, s.a}, []byte{s2.i, s2.j, s2.k, s2.z, s2.w, s2.a}) &
		subtle.ConstantTimeEq(int32(boolToInt(s.ready)), int32(boolToInt(s2.ready)))
}

// Clear zeros out the state and returns it to being uninitialized.
func (s *State) Clear() {
	clear(s.s[:])
	s.i, s.j, s.k, s.z, s.w, s.a = 0, 0, 0, 0, 0, 0
	s.ready = false
}

// String renders the registers and permutation as hex, separated by underscores.
func (s *State) String() string {
	return fmt.Sprintf("%02x_%02x_%02x_%02x_%02x_%02x_%s", s.i, s.j, s.k, s.z, s.w, s.a, hex.EncodeToString(s.s[:]))
}

// UnmarshalBinary restores the state from the given binary representation. It implements encoding.BinaryUnmarshaler.
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) != stateSize {
		return invalidState(fmt.Sprintf("encoded state must be %d bytes (got %d)", stateSize, len(data)))
	}
	var snap Snapshot
	snap.I, snap.J, snap.K, snap.Z, snap.W, snap.A = data[0], data[1], data[2], data[3], data[4], data[5]
	copy(snap.S[:], data[6:])
	if !snap.Valid() {
		return invalidState("encoded state violates the permutation invariants")
	}
	s.i, s.j, s.k, s.z, s.w, s.a = snap.I, snap.J, snap.K, snap.Z, snap.W, snap.A
	s.s = snap.S
	s.ready = true
	return nil
}

// AppendBinary appends the binary representation of the state to the given slice. It implements
// encoding.BinaryAppender.
func (s *State) AppendBinary(b []byte) ([]byte, error) {
	if !s.ready {
		return b, uninitialized()
	}
	return append(append(b, s.i, s.j, s.k, s.z, s.w, s.a), s.s[:]...), nil
}

// MarshalBinary returns the binary representation of the state. It implements encoding.BinaryMarshaler.
func (s *State) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, stateSize))
}

func (s *State) init() {
	s.i, s.j, s.k, s.z, s.a = 0, 0, 0, 0, 0
	s.w = 1
	for v := range N {
		s.s[v] = byte(v)
	}
	s.ready = true
}

func (s *State) absorb(data []byte) {
	for _, b := range data {
		s.absorbByte(b)
	}
}

func (s *State) absorbByte(b byte) {
	s.absorbNibble(low(b))
	s.absorbNibble(high(b))
}

func (s *State) absorbNibble(x byte) {
	if s.a == N/2 {
		s.shuffle()
	}
	s.swap(s.a, madd(N/2, x))
	s.a = madd(s.a, 1)
}

func (s *State) absorbStop() {
	if s.a == N/2 {
		s.shuffle()
	}
	s.a = madd(s.a, 1)
}

func (s *State) shuffle() {
	s.whip(2 * N)
	s.crush()
	s.whip(2 * N)
	s.crush()
	s.whip(2 * N)
	s.a = 0
}

func (s *State) whip(r int) {
	for range r {
		s.update()
	}
	for {
		s.w = madd(s.w, 1)
		if gcd(int(s.w), N) == 1 {
			break
		}
	}
}

func (s *State) crush() {
	for v := range N / 2 {
		if s.s[v] > s.s[N-1-v] {
			s.swap(byte(v), byte(N-1-v))
		}
	}
}

func (s *State) squeeze(dst []byte, n int) []byte {
	if s.a > 0 {
		s.shuffle()
	}
	ret, out := mem.SliceForAppend(dst, n)
	for v := range out {
		out[v] = s.drip()
	}
	return ret
}

func (s *State) drip() byte {
	if s.a > 0 {
		s.shuffle()
	}
	s.update()
	return s.output()
}

func (s *State) update() {
	// The order is load-bearing: j uses the old j, and k uses the new j but the old k.
	s.i = madd(s.i, s.w)
	s.j = madd(s.k, s.s[madd(s.j, s.s[s.i])])
	s.k = madd(madd(s.i, s.k), s.s[s.j])
	s.swap(s.i, s.j)
}

func (s *State) output() byte {
	s.z = s.s[madd(s.j, s.s[madd(s.i, s.s[madd(s.z, s.k)])])]
	return s.z
}

func (s *State) swap(p1, p2 byte) {
	s.s[p1], s.s[p2] = s.s[p2], s.s[p1]
}

func (s *State) mustBeReady() {
	if !s.ready {
		panic("spritz: state is not initialized")
	}
}

// A Snapshot is a copy of a State's registers and permutation. Modifying a Snapshot has no effect on the State it was
// taken from.
type Snapshot struct {
	I, J, K, Z, W, A byte
	S                [N]byte
}

// Valid returns true if S is a permutation of 0..N-1, W is coprime with N, and A is at most N/2.
func (snap Snapshot) Valid() bool {
	var seen [N]bool
	for _, v := range snap.S {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return gcd(int(snap.W), N) == 1 && snap.A <= N/2
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// stateSize is the size of an encoded State: six registers and the permutation.
const stateSize = 6 + N

var (
	_ fmt.Stringer               = (*State)(nil)
	_ encoding.BinaryAppender    = (*State)(nil)
	_ encoding.BinaryMarshaler   = (*State)(nil)
	_ encoding.BinaryUnmarshaler = (*State)(nil)
)
