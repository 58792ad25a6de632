// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build unix

package convert

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var errLocked = errors.New("file is locked by another process")

func lockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return errLocked
	}
	return err
}

func unlockFile(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
