//go:build !linux

package main

import "errors"

func readNoEcho(uintptr) ([]byte, error) {
	return nil, errors.New("password prompts are only supported on Linux; use --password or --password.file")
}
