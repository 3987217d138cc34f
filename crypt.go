package spritz

import "github.com/codahale/spritz/internal/mem"

// KeySetup returns a new State which has absorbed key. The key must not be empty.
func KeySetup(key []byte) (*State, error) {
	if err := CheckNonEmpty("key", key); err != nil {
		return nil, err
	}
	s := NewState()
	s.absorb(key)
	return s, nil
}

// Encrypt encrypts plaintext with key by adding a keystream to it, byte by byte, modulo N. The ciphertext is the same
// length as the plaintext. Neither key nor plaintext may be empty.
//
// Encrypt is deterministic: the same key always produces the same keystream. Use EncryptWithIV to encrypt more than
// one message with a key.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	if err := CheckNonEmpty("key", key); err != nil {
		return nil, err
	}
	if err := CheckNonEmpty("plaintext", plaintext); err != nil {
		return nil, err
	}
	return crypt(keySetup(key, nil), plaintext, mem.Add), nil
}

// Decrypt decrypts ciphertext with key by subtracting the keystream from it, byte by byte, modulo N. Neither key nor
// ciphertext may be empty.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	if err := CheckNonEmpty("key", key); err != nil {
		return nil, err
	}
	if err := CheckNonEmpty("ciphertext", ciphertext); err != nil {
		return nil, err
	}
	return crypt(keySetup(key, nil), ciphertext, mem.Sub), nil
}

// EncryptWithIV encrypts plaintext with key and an initialization vector. The key and IV are absorbed as separate
// fields, so (key, iv) pairs never collide with longer keys. None of the inputs may be empty.
func EncryptWithIV(key, iv, plaintext []byte) ([]byte, error) {
	if err := checkKeyIV(key, iv); err != nil {
		return nil, err
	}
	if err := CheckNonEmpty("plaintext", plaintext); err != nil {
		return nil, err
	}
	return crypt(keySetup(key, iv), plaintext, mem.Add), nil
}

// DecryptWithIV decrypts ciphertext produced by EncryptWithIV. None of the inputs may be empty.
func DecryptWithIV(key, iv, ciphertext []byte) ([]byte, error) {
	if err := checkKeyIV(key, iv); err != nil {
		return nil, err
	}
	if err := CheckNonEmpty("ciphertext", ciphertext); err != nil {
		return nil, err
	}
	return crypt(keySetup(key, iv), ciphertext, mem.Sub), nil
}

func checkKeyIV(key, iv []byte) error {
	if err := CheckNonEmpty("key", key); err != nil {
		return err
	}
	return CheckNonEmpty("iv", iv)
}

// keySetup absorbs the key and, if iv is non-empty, a stop followed by the iv.
func keySetup(key, iv []byte) *State {
	s := NewState()
	s.absorb(key)
	if len(iv) > 0 {
		s.absorbStop()
		s.absorb(iv)
	}
	return s
}

// crypt squeezes a keystream the length of in and combines the two with f.
func crypt(s *State, in []byte, f func(dst, a, b []byte)) []byte {
	out := s.squeeze(nil, len(in))
	f(out, in, out)
	return out
}
