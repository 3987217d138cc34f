package spritz //nolint:testpackage // testing engine internals

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/codahale/spritz/internal/mem"
	"github.com/codahale/spritz/internal/testdata"
)

func TestState_Init(t *testing.T) {
	s := NewState()

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	if got, want := [6]byte{snap.I, snap.J, snap.K, snap.Z, snap.W, snap.A}, [6]byte{0, 0, 0, 0, 1, 0}; got != want {
		t.Errorf("registers = %v, want = %v", got, want)
	}

	for v, x := range snap.S {
		if int(x) != v {
			t.Fatalf("S[%d] = %d, want = %d", v, x, v)
		}
	}

	if got, want := s.String()[:22], "00_00_00_00_01_00_0001"; got != want {
		t.Errorf("String() = %s, want prefix %s", got, want)
	}
}

func TestState_Drip(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"ABC", "779a8e01f9e9cbc0"},
		{"spam", "f0609a1df143cebf"},
		{"arcfour", "1afa8b5ee337dbc7"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			s := NewState()
			if err := s.Absorb([]byte(tc.in)); err != nil {
				t.Fatal(err)
			}

			out := make([]byte, 8)
			for i := range out {
				out[i] = s.Drip()
			}

			if got := hex.EncodeToString(out); got != tc.want {
				t.Errorf("Drip() = %s, want = %s", got, tc.want)
			}
		})
	}
}

func TestState_Squeeze(t *testing.T) {
	s1, s2 := NewState(), NewState()
	_ = s1.Absorb([]byte("ABC"))
	_ = s2.Absorb([]byte("ABC"))

	out := s1.Squeeze([]byte("prefix"), 8)
	if got, want := string(out[:6]), "prefix"; got != want {
		t.Errorf("Squeeze(prefix) = %q, want = %q", got, want)
	}

	if got, want := hex.EncodeToString(out[6:]), "779a8e01f9e9cbc0"; got != want {
		t.Errorf("Squeeze() = %s, want = %s", got, want)
	}

	// Squeezing in pieces is the same as squeezing all at once.
	var pieces []byte
	for range 4 {
		pieces = s2.Squeeze(pieces, 2)
	}
	if got, want := pieces, out[6:]; !bytes.Equal(got, want) {
		t.Errorf("Squeeze() in pieces = %x, want = %x", got, want)
	}

	if got := s1.Squeeze(nil, 0); len(got) != 0 {
		t.Errorf("Squeeze(0) = %x, want empty", got)
	}

	expectPanic(t, "negative length", func() { s1.Squeeze(nil, -1) })
}

func TestState_Absorb(t *testing.T) {
	s := NewState()
	if err := s.Absorb(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Absorb(nil) err = %v, want = %v", err, ErrEmptyInput)
	}

	if n, err := s.Write(nil); n != 0 || err != nil {
		t.Errorf("Write(nil) = %d, %v, want = 0, nil", n, err)
	}

	if s.Equal(NewState()) != 1 {
		t.Error("empty input mutated the state")
	}

	if err := s.Absorb([]byte{0, 1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	if s.Equal(NewState()) != 0 {
		t.Error("Absorb did not mutate the state")
	}

	w := NewState()
	_, _ = w.Write([]byte{0, 1})
	_, _ = w.Write([]byte{2, 3})
	if w.Equal(s) != 1 {
		t.Errorf("Write in pieces = %s, want = %s", w, s)
	}
}

func TestState_AbsorbNibble(t *testing.T) {
	s := NewState()
	s.AbsorbNibble(0x5)

	// S[0] and S[128+5] are swapped.
	if got, want := s.s[0], byte(133); got != want {
		t.Errorf("S[0] = %d, want = %d", got, want)
	}

	if got, want := s.s[133], byte(0); got != want {
		t.Errorf("S[133] = %d, want = %d", got, want)
	}

	if got, want := s.a, byte(1); got != want {
		t.Errorf("a = %d, want = %d", got, want)
	}
}

func TestState_AbsorbByte(t *testing.T) {
	// Nibbles are absorbed low first.
	s1 := NewState()
	s1.AbsorbByte(0x3a)

	s2 := NewState()
	s2.AbsorbNibble(0xa)
	s2.AbsorbNibble(0x3)

	if s1.Equal(s2) != 1 {
		t.Errorf("AbsorbByte(0x3a) = %s, want = %s", s1, s2)
	}
}

func TestState_AbsorbStop(t *testing.T) {
	s := NewState()
	s.AbsorbStop()

	if got, want := s.a, byte(1); got != want {
		t.Errorf("a = %d, want = %d", got, want)
	}

	if !bytes.Equal(s.s[:], NewState().s[:]) {
		t.Error("AbsorbStop modified the permutation")
	}

	// A stop separates fields: "AB" is not "A" || stop || "B".
	s1, s2 := NewState(), NewState()
	_ = s1.Absorb([]byte("AB"))
	_ = s2.Absorb([]byte("A"))
	s2.AbsorbStop()
	_ = s2.Absorb([]byte("B"))
	if s1.Drip() == s2.Drip() && s1.Drip() == s2.Drip() {
		t.Error("AbsorbStop did not separate fields")
	}
}

func TestState_AbsorbShufflesAtHalf(t *testing.T) {
	s := NewState()
	_ = s.Absorb(make([]byte, N/4)) // two nibbles per byte

	if got, want := s.a, byte(N/2); got != want {
		t.Fatalf("a = %d, want = %d", got, want)
	}

	s.AbsorbNibble(0)
	if got, want := s.a, byte(1); got != want {
		t.Errorf("a after shuffle = %d, want = %d", got, want)
	}

	s2 := NewState()
	_ = s2.Absorb(make([]byte, N/4))
	s2.AbsorbStop()
	if got, want := s2.a, byte(1); got != want {
		t.Errorf("a after stop = %d, want = %d", got, want)
	}
}

func TestState_Whip(t *testing.T) {
	s := NewState()
	s.Whip(0)

	// 2 shares a factor with 256, so w skips to 3.
	if got, want := s.w, byte(3); got != want {
		t.Errorf("w = %d, want = %d", got, want)
	}

	s.Whip(0)
	if got, want := s.w, byte(5); got != want {
		t.Errorf("w = %d, want = %d", got, want)
	}

	s.w = 255
	s.Whip(0)
	if got, want := s.w, byte(1); got != want {
		t.Errorf("w = %d, want = %d", got, want)
	}

	s.Whip(10)
	if got, want := s.i, byte(10*1); got != want {
		t.Errorf("i after Whip(10) = %d, want = %d", got, want)
	}
}

func TestState_Crush(t *testing.T) {
	s := NewState()
	for v := range N {
		s.s[v] = byte(N - 1 - v)
	}
	s.Crush()

	for v, x := range s.s {
		if int(x) != v {
			t.Fatalf("S[%d] = %d, want = %d", v, x, v)
		}
	}

	// A second pass over an ordered permutation changes nothing.
	s.Crush()
	if s.Equal(NewState()) != 1 {
		t.Error("Crush modified an ordered permutation")
	}
}

func TestState_Shuffle(t *testing.T) {
	s := NewState()
	s.AbsorbNibble(1)
	s.Shuffle()

	if got, want := s.a, byte(0); got != want {
		t.Errorf("a = %d, want = %d", got, want)
	}

	snap, _ := s.Snapshot()
	if !snap.Valid() {
		t.Errorf("Shuffle produced an invalid state: %s", s)
	}
}

func TestState_UpdateOutput(t *testing.T) {
	s := NewState()
	s.Update()

	// i = 0+1, j = 0+S[0+S[1]] = 1, k = 1+0+S[1] = 2
	if got, want := [3]byte{s.i, s.j, s.k}, [3]byte{1, 1, 2}; got != want {
		t.Errorf("(i, j, k) = %v, want = %v", got, want)
	}

	// z = S[j+S[i+S[z+k]]] = S[1+S[1+S[2]]] = 4
	if got, want := s.Output(), byte(4); got != want {
		t.Errorf("Output() = %d, want = %d", got, want)
	}

	if got, want := s.z, byte(4); got != want {
		t.Errorf("z = %d, want = %d", got, want)
	}
}

func TestState_Uninitialized(t *testing.T) {
	var s State

	for name, f := range map[string]func(){
		"Absorb":       func() { _ = s.Absorb([]byte("x")) },
		"Write":        func() { _, _ = s.Write([]byte("x")) },
		"AbsorbByte":   func() { s.AbsorbByte(1) },
		"AbsorbNibble": func() { s.AbsorbNibble(1) },
		"AbsorbStop":   func() { s.AbsorbStop() },
		"Shuffle":      func() { s.Shuffle() },
		"Whip":         func() { s.Whip(1) },
		"Crush":        func() { s.Crush() },
		"Squeeze":      func() { s.Squeeze(nil, 1) },
		"Drip":         func() { s.Drip() },
		"Update":       func() { s.Update() },
		"Output":       func() { s.Output() },
	} {
		t.Run(name, func(t *testing.T) {
			expectPanic(t, name, f)
		})
	}

	if _, err := s.Snapshot(); !errors.Is(err, ErrUninitialized) {
		t.Errorf("Snapshot() err = %v, want = %v", err, ErrUninitialized)
	}

	if _, err := s.MarshalBinary(); !errors.Is(err, ErrUninitialized) {
		t.Errorf("MarshalBinary() err = %v, want = %v", err, ErrUninitialized)
	}
}

func TestState_Snapshot(t *testing.T) {
	s := NewState()
	_ = s.Absorb([]byte("ABC"))

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	snap.S[0], snap.S[1] = snap.S[1], snap.S[0]
	snap.W = 2

	again, _ := s.Snapshot()
	if again.S == snap.S || again.W == snap.W {
		t.Error("modifying a snapshot modified the state")
	}

	if snap.Valid() {
		t.Error("Valid() = true for an even w")
	}
}

func TestState_MarshalBinary(t *testing.T) {
	s := NewState()
	_ = s.Absorb([]byte("ABC"))
	s.AbsorbStop()

	b, err := s.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	if got, want := len(b), stateSize; got != want {
		t.Errorf("len(MarshalBinary()) = %d, want = %d", got, want)
	}

	var s2 State
	if err := s2.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}

	if s.Equal(&s2) != 1 {
		t.Errorf("UnmarshalBinary(MarshalBinary()) = %s, want = %s", &s2, s)
	}

	if got, want := s2.Squeeze(nil, 16), s.Squeeze(nil, 16); !bytes.Equal(got, want) {
		t.Errorf("Squeeze() after round trip = %x, want = %x", got, want)
	}

	t.Run("invalid", func(t *testing.T) {
		for name, data := range map[string][]byte{
			"short":           b[:len(b)-1],
			"not permutation": append(bytes.Clone(b[:6]), make([]byte, N)...),
			"even w":          append([]byte{0, 0, 0, 0, 2, 0}, b[6:]...),
			"big a":           append([]byte{0, 0, 0, 0, 1, N/2 + 1}, b[6:]...),
		} {
			if err := new(State).UnmarshalBinary(data); !errors.Is(err, ErrInvalidState) {
				t.Errorf("UnmarshalBinary(%s) err = %v, want = %v", name, err, ErrInvalidState)
			}
		}
	})
}

func TestState_Clone(t *testing.T) {
	s := NewState()
	_ = s.Absorb([]byte("ABC"))

	clone := *s
	if got, want := clone.Squeeze(nil, 8), s.Squeeze(nil, 8); !bytes.Equal(got, want) {
		t.Errorf("clone.Squeeze() = %x, want = %x", got, want)
	}
}

func TestState_Clear(t *testing.T) {
	s := NewState()
	_ = s.Absorb([]byte("ABC"))
	s.Clear()

	if !strings.HasPrefix(s.String(), "00_00_00_00_00_00_0000") {
		t.Errorf("String() after Clear = %s", s)
	}

	expectPanic(t, "Drip after Clear", func() { s.Drip() })
}

func TestState_PermutationInvariant(t *testing.T) {
	drbg := testdata.New("spritz permutation invariant")
	s := NewState()

	for range 2000 {
		op := drbg.Data(2)
		switch op[0] % 8 {
		case 0:
			s.AbsorbByte(op[1])
		case 1:
			s.AbsorbNibble(op[1] & 0x0f)
		case 2:
			s.AbsorbStop()
		case 3:
			s.Whip(int(op[1]))
		case 4:
			s.Crush()
		case 5:
			s.Squeeze(nil, int(op[1]%32))
		case 6:
			s.Update()
			s.Output()
		case 7:
			_ = s.Absorb(drbg.Data(int(op[1])%300 + 1))
		}

		snap, _ := s.Snapshot()
		if !snap.Valid() {
			t.Fatalf("invariants violated: %s", s)
		}
	}
}

func TestArith(t *testing.T) {
	if got, want := madd(255, 1), byte(0); got != want {
		t.Errorf("madd(255, 1) = %d, want = %d", got, want)
	}

	if got, want := madd(200, 100), byte(44); got != want {
		t.Errorf("madd(200, 100) = %d, want = %d", got, want)
	}

	if got, want := msub(0, 1), byte(255); got != want {
		t.Errorf("msub(0, 1) = %d, want = %d", got, want)
	}

	if got, want := msub(100, 200), byte(156); got != want {
		t.Errorf("msub(100, 200) = %d, want = %d", got, want)
	}

	if got, want := low(0xab), byte(0xb); got != want {
		t.Errorf("low(0xab) = %x, want = %x", got, want)
	}

	if got, want := high(0xab), byte(0xa); got != want {
		t.Errorf("high(0xab) = %x, want = %x", got, want)
	}

	for _, tc := range []struct{ a, b, want int }{
		{1, 256, 1}, {2, 256, 2}, {12, 256, 4}, {255, 256, 1}, {0, 256, 256},
	} {
		if got := gcd(tc.a, tc.b); got != tc.want {
			t.Errorf("gcd(%d, %d) = %d, want = %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestArith_Slices(t *testing.T) {
	a, b := make([]byte, 0, N*N), make([]byte, 0, N*N)
	for x := range N {
		for y := range N {
			a, b = append(a, byte(x)), append(b, byte(y))
		}
	}

	sum, diff := make([]byte, len(a)), make([]byte, len(a))
	mem.Add(sum, a, b)
	mem.Sub(diff, a, b)

	for i := range a {
		if got, want := sum[i], madd(a[i], b[i]); got != want {
			t.Fatalf("mem.Add(%d, %d) = %d, want = %d", a[i], b[i], got, want)
		}
		if got, want := diff[i], msub(a[i], b[i]); got != want {
			t.Fatalf("mem.Sub(%d, %d) = %d, want = %d", a[i], b[i], got, want)
		}
	}
}

func expectPanic(t *testing.T, name string, f func()) {
	t.Helper()

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	f()
}
