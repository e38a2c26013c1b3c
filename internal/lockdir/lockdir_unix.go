//go:build !windows

package lockdir

import (
	"os"

	"golang.org/x/sys/unix"
)

// Development and test hosts use flock, which has the same blocking
// exclusive semantics as the Windows implementation.
func lockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
