// Package fsx holds the staged-write file plumbing shared by the asset
// installer, the self installer and the update applier.
//
// Every destination write goes through a temporary file created in the
// destination's own directory, flushed and synced in full, then renamed
// into place. Readers never observe a partially-written binary.
package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Swappable for tests, which force the destination-exists rename failure
// Windows reports for an occupied destination.
var (
	removeFunc = os.Remove
	renameFunc = os.Rename
)

// StageFrom writes everything from r into a staged temp file next to dest,
// syncs it, and atomically persists it over dest.
func StageFrom(r io.Reader, dest string) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tinythis-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create staging file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write staging file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	return Persist(tmpName, dest)
}

// CopyFileStaged copies src into dest through a staged temp file.
func CopyFileStaged(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	return StageFrom(in, dest)
}

// Persist renames a fully-written staged file over dest. When the rename
// fails because dest already exists, dest is removed explicitly and the
// rename retried exactly once.
func Persist(staged, dest string) error {
	err := renameFunc(staged, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to persist %s: %w", dest, err)
	}
	if err := removeFunc(dest); err != nil {
		return fmt.Errorf("failed to remove existing %s: %w", dest, err)
	}
	if err := renameFunc(staged, dest); err != nil {
		return fmt.Errorf("failed to persist %s after removing destination: %w", dest, err)
	}
	return nil
}

// RemoveFileIfExists removes path, tolerating a missing file.
func RemoveFileIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RemoveDirIfEmpty removes a directory, tolerating a missing or non-empty
// one.
func RemoveDirIfEmpty(dir string) error {
	err := os.Remove(dir)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if dirNotEmpty(err) {
		return nil
	}
	return err
}

// RemoveTree removes a directory tree, tolerating a missing one.
func RemoveTree(dir string) error {
	err := os.RemoveAll(dir)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// IsRegularFile reports whether path exists and is a regular file.
func IsRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// SamePath reports whether two paths refer to the same file by
// case-insensitive textual comparison, matching Windows filesystem
// semantics for the layout-derived paths we compare.
func SamePath(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}

// WithinDir reports whether path is located inside dir, compared
// case-insensitively with normalized separators.
func WithinDir(dir, path string) bool {
	d := strings.ReplaceAll(filepath.Clean(dir), "/", "\\")
	if !strings.HasSuffix(d, "\\") {
		d += "\\"
	}
	p := strings.ReplaceAll(filepath.Clean(path), "/", "\\")
	return strings.HasPrefix(strings.ToLower(p), strings.ToLower(d))
}

func dirNotEmpty(err error) bool {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		msg := strings.ToLower(pe.Err.Error())
		return strings.Contains(msg, "not empty")
	}
	return false
}
