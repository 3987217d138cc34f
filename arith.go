package spritz

// madd returns a+b mod N.
func madd(a, b byte) byte {
	return byte((int(a) + int(b)) % N)
}

// msub returns a-b mod N.
func msub(a, b byte) byte {
	return byte((N + int(a) - int(b)) % N)
}

func low(b byte) byte {
	return b & 0x0f
}

func high(b byte) byte {
	return (b >> 4) & 0x0f
}

// gcd returns the greatest common divisor of a and b. gcd(0, b) is b.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
