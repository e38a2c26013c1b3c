// Package assets installs the ffmpeg encoder toolchain below the
// application root.
//
// The whole install runs under the install-directory lock so concurrent
// tinythis invocations serialize instead of interleaving writes. Every
// extracted file is staged next to its destination and persisted
// atomically.
package assets

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wraithsoul/tinythis/internal/execx"
	"github.com/wraithsoul/tinythis/internal/fsx"
	"github.com/wraithsoul/tinythis/internal/lockdir"
	"github.com/wraithsoul/tinythis/internal/paths"
)

// DefaultArchiveURL is the fixed release archive the encoder binaries are
// extracted from.
const DefaultArchiveURL = "https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-win64-gpl.zip"

const downloadBufferSize = 64 * 1024

// Binaries are the resolved encoder executable paths.
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

// IncompleteInstallError reports required executables still missing after
// extraction.
type IncompleteInstallError struct {
	Missing []string
}

func (e *IncompleteInstallError) Error() string {
	return fmt.Sprintf("ffmpeg install incomplete; missing: %s", strings.Join(e.Missing, ", "))
}

// EntryMissingError reports a required entry absent from the downloaded
// archive.
type EntryMissingError struct {
	Name string
}

func (e *EntryMissingError) Error() string {
	return fmt.Sprintf("expected asset entry not found in zip: %s", e.Name)
}

// ProgressFunc receives download byte progress. total is -1 when the
// response length is unknown.
type ProgressFunc func(done, total int64)

// Installer downloads, extracts and verifies the encoder binaries.
type Installer struct {
	layout     paths.Layout
	logger     zerolog.Logger
	client     *http.Client
	archiveURL string
	progress   ProgressFunc

	// verify is invoked for each installed executable; tests substitute it
	// to avoid depending on runnable binaries.
	verify func(ctx context.Context, exe string) error
}

// New creates an Installer over the given layout. archiveURL falls back
// to DefaultArchiveURL when empty.
func New(layout paths.Layout, logger *zerolog.Logger, archiveURL string) *Installer {
	if archiveURL == "" {
		archiveURL = DefaultArchiveURL
	}
	ins := &Installer{
		layout: layout,
		logger: logger.With().Str("service", "assets").Logger(),
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		archiveURL: archiveURL,
	}
	ins.verify = ins.verifyExecutable
	return ins
}

// SetProgress installs a byte-progress callback for downloads.
func (ins *Installer) SetProgress(fn ProgressFunc) {
	ins.progress = fn
}

// EnsureInstalled returns the encoder binary paths, downloading and
// extracting them first when absent or when force is set. When both
// executables already exist the call touches nothing and performs no
// network access.
func (ins *Installer) EnsureInstalled(ctx context.Context, force bool) (Binaries, error) {
	dir := ins.layout.FFmpegDir

	guard, err := lockdir.Acquire(dir)
	if err != nil {
		return Binaries{}, err
	}
	defer guard.Release()

	bins := Binaries{
		FFmpeg:  ins.layout.FFmpegExe(),
		FFprobe: ins.layout.FFprobeExe(),
	}

	if !force && fsx.IsRegularFile(bins.FFmpeg) && fsx.IsRegularFile(bins.FFprobe) {
		return bins, nil
	}

	ins.logger.Info().Str("url", ins.archiveURL).Msg("downloading ffmpeg archive")

	zipPath, err := ins.downloadArchive(ctx, dir)
	if err != nil {
		return Binaries{}, err
	}
	defer os.Remove(zipPath)

	if err := ins.extractExecutables(zipPath, bins); err != nil {
		return Binaries{}, err
	}

	var missing []string
	if !fsx.IsRegularFile(bins.FFmpeg) {
		missing = append(missing, bins.FFmpeg)
	}
	if !fsx.IsRegularFile(bins.FFprobe) {
		missing = append(missing, bins.FFprobe)
	}
	if len(missing) > 0 {
		return Binaries{}, &IncompleteInstallError{Missing: missing}
	}

	if err := ins.verify(ctx, bins.FFmpeg); err != nil {
		return Binaries{}, err
	}
	if err := ins.verify(ctx, bins.FFprobe); err != nil {
		return Binaries{}, err
	}

	ins.logger.Info().Str("ffmpeg", bins.FFmpeg).Str("ffprobe", bins.FFprobe).Msg("ffmpeg installed")
	return bins, nil
}

// UninstallAssets removes the encoder binaries and the lock file,
// tolerating files already gone, then removes the asset directory if it
// is now empty.
func (ins *Installer) UninstallAssets() error {
	dir := ins.layout.FFmpegDir

	if err := fsx.RemoveFileIfExists(ins.layout.FFmpegExe()); err != nil {
		return err
	}
	if err := fsx.RemoveFileIfExists(ins.layout.FFprobeExe()); err != nil {
		return err
	}
	if err := fsx.RemoveFileIfExists(filepath.Join(dir, lockdir.LockFileName)); err != nil {
		return err
	}
	return fsx.RemoveDirIfEmpty(dir)
}

// downloadArchive streams the release zip into a temp file co-located
// with the install directory so later renames stay on one volume.
func (ins *Installer) downloadArchive(ctx context.Context, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ins.archiveURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := ins.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download ffmpeg archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ffmpeg archive download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".tinythis-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create archive staging file: %w", err)
	}
	tmpName := tmp.Name()

	if err := ins.copyWithProgress(tmp, resp.Body, resp.ContentLength); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}

func (ins *Installer) copyWithProgress(dst io.Writer, src io.Reader, total int64) error {
	buf := make([]byte, downloadBufferSize)
	var done int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write archive: %w", werr)
			}
			done += int64(n)
			if ins.progress != nil {
				ins.progress(done, total)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive download read error: %w", err)
		}
	}
}

// requiredEntry maps a normalized archive-path suffix to its install
// destination.
type requiredEntry struct {
	suffix string
	dest   string
}

// extractExecutables scans archive entries in order and stages each
// required executable into place. Scanning stops as soon as every
// required entry has been found.
func (ins *Installer) extractExecutables(zipPath string, bins Binaries) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg archive: %w", err)
	}
	defer r.Close()

	required := []requiredEntry{
		{suffix: "bin/ffmpeg.exe", dest: bins.FFmpeg},
		{suffix: "bin/ffprobe.exe", dest: bins.FFprobe},
	}
	found := make([]bool, len(required))
	remaining := len(required)

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ReplaceAll(f.Name, `\`, "/")

		for i, req := range required {
			if found[i] || !hasSuffixFold(name, req.suffix) {
				continue
			}
			if err := ins.extractEntry(f, req.dest); err != nil {
				return err
			}
			found[i] = true
			remaining--
		}
		if remaining == 0 {
			break
		}
	}

	for i, req := range required {
		if !found[i] {
			return &EntryMissingError{Name: filepath.Base(req.dest)}
		}
	}
	return nil
}

func (ins *Installer) extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	if err := fsx.StageFrom(rc, dest); err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return nil
}

// verifyExecutable confirms an installed binary runs by asking it for its
// version.
func (ins *Installer) verifyExecutable(ctx context.Context, exe string) error {
	if _, err := execx.RunCapture(ctx, exe, "-version"); err != nil {
		return err
	}
	return nil
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
