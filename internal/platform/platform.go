// Package platform gates lifecycle operations on the supported OS.
//
// tinythis installs binaries, edits the user PATH registry value and swaps
// its own executable; all of that assumes Windows semantics. Pure logic
// elsewhere stays portable so the test suite runs on any host.
package platform

import (
	"fmt"
	"runtime"
)

// UnsupportedError reports an operation attempted on an OS the lifecycle
// manager does not support.
type UnsupportedError struct {
	OS string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.OS)
}

// Supported reports whether the running OS supports install, update and
// uninstall operations.
func Supported() bool {
	return runtime.GOOS == "windows"
}

// Ensure returns an UnsupportedError when the running OS is not supported.
func Ensure() error {
	if !Supported() {
		return &UnsupportedError{OS: runtime.GOOS}
	}
	return nil
}
