package assets

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wraithsoul/tinythis/internal/paths"
)

type zipEntry struct {
	name    string
	content string
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func fullArchive(t *testing.T) []byte {
	return buildZip(t, []zipEntry{
		{"ffmpeg-master-latest-win64-gpl/LICENSE.txt", "license text"},
		{"ffmpeg-master-latest-win64-gpl/bin/ffmpeg.exe", "ffmpeg binary"},
		{"ffmpeg-master-latest-win64-gpl/bin/ffprobe.exe", "ffprobe binary"},
		{"ffmpeg-master-latest-win64-gpl/doc/ffmpeg.html", "docs"},
	})
}

// serveArchive returns an installer whose archive URL points at an
// httptest server serving the given zip, counting requests.
func serveArchive(t *testing.T, archive []byte) (*Installer, paths.Layout, *int) {
	t.Helper()

	requests := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	layout := paths.ResolveAt(t.TempDir())
	logger := zerolog.Nop()
	ins := New(layout, &logger, srv.URL)
	ins.verify = func(context.Context, string) error { return nil }
	return ins, layout, requests
}

func TestEnsureInstalled(t *testing.T) {
	ins, layout, requests := serveArchive(t, fullArchive(t))

	bins, err := ins.EnsureInstalled(context.Background(), false)
	if err != nil {
		t.Fatalf("EnsureInstalled: %v", err)
	}
	if bins.FFmpeg != layout.FFmpegExe() || bins.FFprobe != layout.FFprobeExe() {
		t.Errorf("unexpected binary paths: %+v", bins)
	}

	for path, want := range map[string]string{
		bins.FFmpeg:  "ffmpeg binary",
		bins.FFprobe: "ffprobe binary",
	} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if string(got) != want {
			t.Errorf("%s content = %q, want %q", path, got, want)
		}
	}

	// Only the two executables land in the install dir, plus the lock
	// file; the license and docs entries are never extracted.
	entries, err := os.ReadDir(layout.FFmpegDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("install dir holds %v, want ffmpeg.exe, ffprobe.exe and the lock file", names)
	}

	if *requests != 1 {
		t.Errorf("archive fetched %d times, want 1", *requests)
	}
}

func TestEnsureInstalledFastPath(t *testing.T) {
	ins, _, requests := serveArchive(t, fullArchive(t))

	if _, err := ins.EnsureInstalled(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := ins.EnsureInstalled(context.Background(), false); err != nil {
		t.Fatalf("second EnsureInstalled: %v", err)
	}
	if *requests != 1 {
		t.Errorf("archive fetched %d times, want 1 (second call must not touch the network)", *requests)
	}
}

func TestEnsureInstalledForceRedownloads(t *testing.T) {
	ins, _, requests := serveArchive(t, fullArchive(t))

	if _, err := ins.EnsureInstalled(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := ins.EnsureInstalled(context.Background(), true); err != nil {
		t.Fatalf("forced EnsureInstalled: %v", err)
	}
	if *requests != 2 {
		t.Errorf("archive fetched %d times, want 2", *requests)
	}
}

func TestEnsureInstalledMatchesEntriesCaseInsensitively(t *testing.T) {
	archive := buildZip(t, []zipEntry{
		{`release\BIN\FFmpeg.EXE`, "ffmpeg binary"},
		{`release\BIN\FFprobe.EXE`, "ffprobe binary"},
	})
	ins, _, _ := serveArchive(t, archive)

	bins, err := ins.EnsureInstalled(context.Background(), false)
	if err != nil {
		t.Fatalf("EnsureInstalled: %v", err)
	}
	got, err := os.ReadFile(bins.FFmpeg)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ffmpeg binary" {
		t.Errorf("ffmpeg content = %q", got)
	}
}

func TestEnsureInstalledMissingEntry(t *testing.T) {
	archive := buildZip(t, []zipEntry{
		{"release/bin/ffmpeg.exe", "ffmpeg binary"},
		{"release/LICENSE.txt", "license"},
	})
	ins, _, _ := serveArchive(t, archive)

	_, err := ins.EnsureInstalled(context.Background(), false)
	var missing *EntryMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("EnsureInstalled = %v, want EntryMissingError", err)
	}
	if missing.Name != "ffprobe.exe" {
		t.Errorf("missing entry = %q, want ffprobe.exe", missing.Name)
	}
}

func TestEnsureInstalledRejectsNonZip(t *testing.T) {
	ins, _, _ := serveArchive(t, []byte("<html>not a zip</html>"))

	if _, err := ins.EnsureInstalled(context.Background(), false); err == nil {
		t.Fatal("EnsureInstalled with a bogus archive succeeded, want error")
	}
}

func TestEnsureInstalledServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	layout := paths.ResolveAt(t.TempDir())
	logger := zerolog.Nop()
	ins := New(layout, &logger, srv.URL)

	if _, err := ins.EnsureInstalled(context.Background(), false); err == nil {
		t.Fatal("EnsureInstalled against failing server succeeded, want error")
	}
}

func TestEnsureInstalledVerifyFailure(t *testing.T) {
	ins, _, _ := serveArchive(t, fullArchive(t))
	verifyErr := errors.New("exit status 1")
	ins.verify = func(context.Context, string) error { return verifyErr }

	if _, err := ins.EnsureInstalled(context.Background(), false); !errors.Is(err, verifyErr) {
		t.Errorf("EnsureInstalled = %v, want verification error", err)
	}
}

func TestUninstallAssets(t *testing.T) {
	ins, layout, _ := serveArchive(t, fullArchive(t))

	if _, err := ins.EnsureInstalled(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if err := ins.UninstallAssets(); err != nil {
		t.Fatalf("UninstallAssets: %v", err)
	}
	if _, err := os.Stat(layout.FFmpegDir); err == nil {
		t.Error("asset directory still present after uninstall")
	}

	// Uninstalling an already-clean tree is a no-op.
	if err := ins.UninstallAssets(); err != nil {
		t.Errorf("second UninstallAssets: %v", err)
	}
}
