//go:build !windows

package pathenv

import "github.com/wraithsoul/tinythis/internal/platform"

// The per-user environment store only exists on Windows; elsewhere the
// registry-backed operations report the platform as unsupported.

func Contains(dir string) (bool, error) {
	return false, platform.Ensure()
}

func EnsureContains(dir string) (bool, error) {
	return false, platform.Ensure()
}

func RemoveEntry(dir string) (bool, error) {
	return false, platform.Ensure()
}
