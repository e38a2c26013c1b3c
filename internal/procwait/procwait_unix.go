//go:build !windows

package procwait

import (
	"time"

	"golang.org/x/sys/unix"
)

const pollInterval = 200 * time.Millisecond

// Unix hosts poll with signal 0; there is no handle-based wait for a
// non-child process.
func waitForExit(pid int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := unix.Kill(pid, 0); err != nil {
			return
		}
		time.Sleep(pollInterval)
	}
}
