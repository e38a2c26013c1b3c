// Package selfinstall copies the running executable into the stable
// install location and keeps the user PATH pointing at it.
package selfinstall

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/wraithsoul/tinythis/internal/fsx"
	"github.com/wraithsoul/tinythis/internal/pathenv"
	"github.com/wraithsoul/tinythis/internal/paths"
)

// ErrInstalledExeInUse reports that the installed executable could not be
// replaced because another instance still holds it open.
var ErrInstalledExeInUse = errors.New("access denied replacing installed exe; close running tinythis instances and retry")

// ExeInstallOutcome is the resolved install location returned by
// InstallExe.
type ExeInstallOutcome struct {
	BinDir       string
	InstalledExe string
}

// InstallOutcome extends ExeInstallOutcome with the PATH registration
// result.
type InstallOutcome struct {
	ExeInstallOutcome
	PathUpdated bool
}

// UninstallOutcome reports whether uninstalling changed the user PATH.
type UninstallOutcome struct {
	PathUpdated bool
}

// InstallExe copies the currently-running executable into the bin
// directory. Running from the installed path is a no-op; an existing
// install wins unless force is set.
func InstallExe(layout paths.Layout, force bool) (ExeInstallOutcome, error) {
	out := ExeInstallOutcome{
		BinDir:       layout.BinDir,
		InstalledExe: layout.InstalledExe(),
	}

	if err := os.MkdirAll(layout.BinDir, 0o755); err != nil {
		return ExeInstallOutcome{}, fmt.Errorf("failed to create bin directory: %w", err)
	}

	currentExe, err := os.Executable()
	if err != nil {
		return ExeInstallOutcome{}, fmt.Errorf("failed to resolve current executable: %w", err)
	}

	if fsx.SamePath(currentExe, out.InstalledExe) {
		return out, nil
	}
	if fsx.IsRegularFile(out.InstalledExe) && !force {
		return out, nil
	}

	if err := copySelfTo(currentExe, out.InstalledExe); err != nil {
		return ExeInstallOutcome{}, err
	}
	return out, nil
}

// Install composes InstallExe with PATH registration.
func Install(layout paths.Layout, force bool) (InstallOutcome, error) {
	exe, err := InstallExe(layout, force)
	if err != nil {
		return InstallOutcome{}, err
	}

	updated, err := pathenv.EnsureContains(exe.BinDir)
	if err != nil {
		return InstallOutcome{}, err
	}
	return InstallOutcome{ExeInstallOutcome: exe, PathUpdated: updated}, nil
}

// Uninstall removes the bin directory from the user PATH.
func Uninstall(layout paths.Layout) (UninstallOutcome, error) {
	updated, err := pathenv.RemoveEntry(layout.BinDir)
	if err != nil {
		return UninstallOutcome{}, err
	}
	return UninstallOutcome{PathUpdated: updated}, nil
}

// RemoveBinDir removes the installed-executable directory tree,
// tolerating a missing one.
func RemoveBinDir(layout paths.Layout) error {
	return fsx.RemoveTree(layout.BinDir)
}

// RemoveAppRootIfEmpty removes the application root once everything else
// is gone, tolerating a missing or still-populated root.
func RemoveAppRootIfEmpty(layout paths.Layout) error {
	return fsx.RemoveDirIfEmpty(layout.AppRoot)
}

// copySelfTo stages the running executable next to dest and persists it
// atomically, mapping the in-use replacement failure to an actionable
// error.
func copySelfTo(src, dest string) error {
	err := fsx.CopyFileStaged(src, dest)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s", ErrInstalledExeInUse, dest)
	}
	return err
}
