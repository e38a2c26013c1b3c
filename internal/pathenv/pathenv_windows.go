//go:build windows

package pathenv

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows/registry"
)

const envSubkey = "Environment"

// RegistryError reports a failing registry API with its native error code.
type RegistryError struct {
	API  string
	Code uint32
	Err  error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("windows registry error in %s: %d", e.API, e.Code)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Contains reports whether the user PATH already holds an entry
// equivalent to dir.
func Contains(dir string) (bool, error) {
	entries, _, err := readEntries()
	if err != nil {
		return false, err
	}
	return entriesContain(entries, dir, os.Getenv("LOCALAPPDATA")), nil
}

// EnsureContains appends dir to the user PATH when no equivalent entry is
// present, reporting whether the stored value changed.
func EnsureContains(dir string) (bool, error) {
	entries, valtype, err := readEntries()
	if err != nil {
		return false, err
	}

	out, changed := appendEntry(entries, dir, os.Getenv("LOCALAPPDATA"))
	if !changed {
		return false, nil
	}

	if err := writeEntries(out, valtype); err != nil {
		return false, err
	}
	broadcastEnvChange()
	return true, nil
}

// RemoveEntry removes every entry equivalent to dir from the user PATH,
// reporting whether the stored value changed. An absent entry rewrites
// nothing.
func RemoveEntry(dir string) (bool, error) {
	entries, valtype, err := readEntries()
	if err != nil {
		return false, err
	}

	out, removed := dropEntry(entries, dir, os.Getenv("LOCALAPPDATA"))
	if !removed {
		return false, nil
	}

	if err := writeEntries(out, valtype); err != nil {
		return false, err
	}
	broadcastEnvChange()
	return true, nil
}

// readEntries reads the stored value and its registry type. A missing
// value is an empty PATH of expandable type, not an error.
func readEntries() ([]string, uint32, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, envSubkey, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return nil, 0, wrapRegistry("RegOpenKeyExW", err)
	}
	defer key.Close()

	value, valtype, err := key.GetStringValue("Path")
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, registry.EXPAND_SZ, nil
		}
		return nil, 0, wrapRegistry("RegQueryValueExW", err)
	}
	return SplitEntries(value), valtype, nil
}

// writeEntries rebuilds and writes the full value, preserving the
// original storage type so expandable %VAR% entries keep expanding.
func writeEntries(entries []string, valtype uint32) error {
	key, err := registry.OpenKey(registry.CURRENT_USER, envSubkey, registry.SET_VALUE)
	if err != nil {
		return wrapRegistry("RegOpenKeyExW", err)
	}
	defer key.Close()

	joined := JoinEntries(entries)
	if valtype == registry.SZ {
		err = key.SetStringValue("Path", joined)
	} else {
		err = key.SetExpandStringValue("Path", joined)
	}
	if err != nil {
		return wrapRegistry("RegSetValueExW", err)
	}
	return nil
}

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procSendMessageTimeoutW = user32.NewProc("SendMessageTimeoutW")
)

const (
	hwndBroadcast   = uintptr(0xffff)
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
)

// broadcastEnvChange notifies running programs that the environment
// changed. The registry write is the durable effect; a failed broadcast
// is ignored.
func broadcastEnvChange() {
	env, err := syscall.UTF16PtrFromString(envSubkey)
	if err != nil {
		return
	}
	var result uintptr
	timeout := uintptr((1 * time.Second).Milliseconds())
	_, _, _ = procSendMessageTimeoutW.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(env)),
		smtoAbortIfHung,
		timeout,
		uintptr(unsafe.Pointer(&result)),
	)
}

func wrapRegistry(api string, err error) error {
	var code uint32
	var errno syscall.Errno
	if errors.As(err, &errno) {
		code = uint32(errno)
	}
	return &RegistryError{API: api, Code: code, Err: err}
}
