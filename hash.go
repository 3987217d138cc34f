package spritz

// Hash returns an n-byte hash of message. The message must not be empty, and n must be between 1 and MaxSize: the
// length is absorbed as a single byte, so longer hashes are not supported.
func Hash(message []byte, n int) ([]byte, error) {
	if err := CheckNonEmpty("message", message); err != nil {
		return nil, err
	}
	if err := CheckSize(n); err != nil {
		return nil, err
	}

	var s State
	s.init()
	s.absorb(message)
	s.absorbStop()
	s.absorbByte(byte(n & 0xff))
	return s.squeeze(nil, n), nil
}

// DomHash returns an n-byte hash of message in the domain named by domain. Hashes of the same message in different
// domains are unrelated. Neither domain nor message may be empty, and n must be between 1 and MaxSize.
func DomHash(domain, message []byte, n int) ([]byte, error) {
	if err := CheckNonEmpty("domain", domain); err != nil {
		return nil, err
	}
	return fieldHash(domain, message, n)
}

// MAC returns an n-byte message authentication code for message under key. Neither key nor message may be empty, and
// n must be between 1 and MaxSize.
func MAC(key, message []byte, n int) ([]byte, error) {
	if err := CheckNonEmpty("key", key); err != nil {
		return nil, err
	}
	return fieldHash(key, message, n)
}

// fieldHash absorbs a prefix field and a message, each terminated by AbsorbStop, then the output length.
func fieldHash(prefix, message []byte, n int) ([]byte, error) {
	if err := CheckNonEmpty("message", message); err != nil {
		return nil, err
	}
	if err := CheckSize(n); err != nil {
		return nil, err
	}

	var s State
	s.init()
	s.absorb(prefix)
	s.absorbStop()
	s.absorb(message)
	s.absorbStop()
	s.absorbByte(byte(n & 0xff))
	return s.squeeze(nil, n), nil
}
