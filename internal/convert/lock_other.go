// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !unix

package convert

import (
	"errors"
	"os"
)

var errLocked = errors.New("file is locked by another process")

// Advisory locking is unix-only; elsewhere an open handle is the access.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
