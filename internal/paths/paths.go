// Package paths derives the per-user install layout for tinythis.
//
// Every directory the lifecycle manager touches lives under a single
// application root in the user's local application data. The layout is
// computed on demand from the environment and never persisted.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout is the immutable set of install directories derived from the
// per-user application-data root.
type Layout struct {
	AppRoot   string // %LOCALAPPDATA%\tinythis
	FFmpegDir string // AppRoot\ffmpeg  (encoder binaries + install lock)
	BinDir    string // AppRoot\bin     (installed tinythis.exe + transient helpers)
}

const (
	appDirName     = "tinythis"
	ffmpegDirName  = "ffmpeg"
	binDirName     = "bin"
	exeName        = "tinythis.exe"
	ffmpegExeName  = "ffmpeg.exe"
	ffprobeExeName = "ffprobe.exe"
)

// Resolve computes the install layout from the current environment.
// It fails only when no per-user data root can be determined.
func Resolve() (Layout, error) {
	root, err := localAppData()
	if err != nil {
		return Layout{}, err
	}
	return ResolveAt(filepath.Join(root, appDirName)), nil
}

// ResolveAt computes the layout below an explicit application root.
// Tests and helper processes use this to operate on arbitrary roots.
func ResolveAt(appRoot string) Layout {
	return Layout{
		AppRoot:   appRoot,
		FFmpegDir: filepath.Join(appRoot, ffmpegDirName),
		BinDir:    filepath.Join(appRoot, binDirName),
	}
}

// InstalledExe is the stable location of the installed tinythis executable.
func (l Layout) InstalledExe() string {
	return filepath.Join(l.BinDir, exeName)
}

// FFmpegExe is the installed ffmpeg binary path.
func (l Layout) FFmpegExe() string {
	return filepath.Join(l.FFmpegDir, ffmpegExeName)
}

// FFprobeExe is the installed ffprobe binary path.
func (l Layout) FFprobeExe() string {
	return filepath.Join(l.FFmpegDir, ffprobeExeName)
}

// LogDir is where rotated log files are written.
func (l Layout) LogDir() string {
	return filepath.Join(l.AppRoot, "logs")
}

func localAppData() (string, error) {
	if v := os.Getenv("LOCALAPPDATA"); v != "" {
		return v, nil
	}
	// os.UserCacheDir resolves to %LocalAppData% on Windows and gives a
	// sensible per-user directory elsewhere for development runs.
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("missing required environment variable LOCALAPPDATA: %w", err)
	}
	return dir, nil
}
