// Package procwait waits for another process to exit.
//
// Detached helper processes use this to sequence "wait for the original
// program to fully exit" before touching files that program held open.
// The wait is best-effort: a PID that cannot be opened or found is
// treated as already gone.
package procwait

import "time"

// WaitForExit blocks until the process with the given PID exits or the
// timeout elapses. A zero PID, a missing process, or an inability to
// observe the process all return immediately.
func WaitForExit(pid int, timeout time.Duration) {
	if pid <= 0 {
		return
	}
	waitForExit(pid, timeout)
}
