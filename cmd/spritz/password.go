package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

var errNotTerminal = errors.New("standard input is not a terminal")

// promptPassword reads a password from the terminal without echoing it. If confirm is set, the password is read twice
// and must match.
func promptPassword(confirm bool) ([]byte, error) {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) {
		return nil, errNotTerminal
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := readNoEcho(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm password: ")
		again, err := readNoEcho(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(password, again) {
			return nil, errors.New("passwords do not match")
		}
	}

	if len(password) == 0 {
		return nil, errors.New("empty password")
	}
	return password, nil
}

// readLine reads a single line from f, a byte at a time so nothing past the newline is consumed.
func readLine(f *os.File) ([]byte, error) {
	var line []byte
	b := make([]byte, 1)
	for {
		n, err := f.Read(b)
		if n == 1 {
			switch b[0] {
			case '\n':
				return line, nil
			case '\r':
			default:
				line = append(line, b[0])
			}
		}
		if err != nil {
			if len(line) > 0 {
				return line, nil
			}
			return nil, err
		}
	}
}
