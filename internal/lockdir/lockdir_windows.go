//go:build windows

package lockdir

import (
	"os"

	"golang.org/x/sys/windows"
)

// lockExclusive blocks until it obtains an exclusive byte-range lock
// covering the whole file. LOCKFILE_EXCLUSIVE_LOCK without
// LOCKFILE_FAIL_IMMEDIATELY makes LockFileEx wait for the current holder.
func lockExclusive(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, ^uint32(0), ^uint32(0), ol)
}

func unlock(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, ^uint32(0), ^uint32(0), ol)
}
