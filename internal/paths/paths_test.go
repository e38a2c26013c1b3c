package paths

import (
	"path/filepath"
	"testing"
)

func TestResolveUsesLocalAppData(t *testing.T) {
	root := t.TempDir()
	t.Setenv("LOCALAPPDATA", root)

	layout, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if layout.AppRoot != filepath.Join(root, appDirName) {
		t.Errorf("AppRoot = %q, want under %q", layout.AppRoot, root)
	}
}

func TestLayoutPaths(t *testing.T) {
	layout := ResolveAt(filepath.Join("root", "tinythis"))

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"FFmpegDir", layout.FFmpegDir, filepath.Join("root", "tinythis", "ffmpeg")},
		{"BinDir", layout.BinDir, filepath.Join("root", "tinythis", "bin")},
		{"InstalledExe", layout.InstalledExe(), filepath.Join("root", "tinythis", "bin", "tinythis.exe")},
		{"FFmpegExe", layout.FFmpegExe(), filepath.Join("root", "tinythis", "ffmpeg", "ffmpeg.exe")},
		{"FFprobeExe", layout.FFprobeExe(), filepath.Join("root", "tinythis", "ffmpeg", "ffprobe.exe")},
		{"LogDir", layout.LogDir(), filepath.Join("root", "tinythis", "logs")},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
