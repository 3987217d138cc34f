package main

import (
	"os"

	"golang.org/x/sys/unix"
)

func readNoEcho(fd uintptr) ([]byte, error) {
	old, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	if err != nil {
		return nil, err
	}

	noEcho := *old
	noEcho.Lflag &^= unix.ECHO
	noEcho.Lflag |= unix.ICANON | unix.ISIG
	noEcho.Iflag |= unix.ICRNL
	if err := unix.IoctlSetTermios(int(fd), unix.TCSETS, &noEcho); err != nil {
		return nil, err
	}
	defer func() { _ = unix.IoctlSetTermios(int(fd), unix.TCSETS, old) }()

	return readLine(os.Stdin)
}
