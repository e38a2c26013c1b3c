// Package lockdir serializes install and uninstall operations between
// concurrent tinythis invocations.
//
// The lock is an OS-level exclusive advisory lock on a well-known file
// inside the directory being mutated. Acquisition blocks until the lock
// is granted; contention comes from other short-lived CLI invocations,
// so no timeout is applied. The lock file itself is never deleted while
// a holder is active.
package lockdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// LockFileName is the well-known lock file created inside a locked
// directory.
const LockFileName = ".install.lock"

// Guard holds an acquired directory lock. Release unlocks and closes the
// underlying handle; it is safe to call more than once.
type Guard struct {
	f        *os.File
	released bool
}

// Acquire creates dir (and parents) if absent, opens or creates the lock
// file inside it, and blocks until it holds the exclusive lock.
func Acquire(dir string) (*Guard, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create install directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(filepath.Join(dir, LockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open install lock: %w", err)
	}

	if err := lockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock install directory %s: %w", dir, err)
	}
	return &Guard{f: f}, nil
}

// Release drops the lock. Closing the handle releases the OS lock even if
// the explicit unlock failed, so errors here are informational.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	_ = unlock(g.f)
	_ = g.f.Close()
}
