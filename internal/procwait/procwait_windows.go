//go:build windows

package procwait

import (
	"time"

	"golang.org/x/sys/windows"
)

func waitForExit(pid int, timeout time.Duration) {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		// Process already gone or not observable.
		return
	}
	defer windows.CloseHandle(h)

	ms := uint32(timeout.Milliseconds())
	_, _ = windows.WaitForSingleObject(h, ms)
}
