// Package compress invokes the installed ffmpeg binary to shrink video
// files. It consumes the paths the asset installer resolved; it performs
// no lifecycle work of its own.
package compress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wraithsoul/tinythis/internal/execx"
)

// Preset selects the quality/speed tradeoff for a compression run.
type Preset string

const (
	PresetQuality  Preset = "quality"
	PresetBalanced Preset = "balanced"
	PresetSpeed    Preset = "speed"
)

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	switch Preset(strings.ToLower(s)) {
	case PresetQuality:
		return PresetQuality, nil
	case PresetBalanced:
		return PresetBalanced, nil
	case PresetSpeed:
		return PresetSpeed, nil
	}
	return "", fmt.Errorf("unknown preset: %q", s)
}

// BuildOutputPath picks a collision-free sibling output name:
// <stem>.tinythis.<preset>.mp4, with a numeric suffix when taken.
func BuildOutputPath(input string, preset Preset) string {
	dir := filepath.Dir(input)
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	base := fmt.Sprintf("%s.tinythis.%s", stem, preset)

	candidate := filepath.Join(dir, base+".mp4")
	if _, err := os.Stat(candidate); err != nil {
		return candidate
	}
	for n := 2; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s.%d.mp4", base, n))
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}

// BuildArgs assembles the ffmpeg invocation for one input.
func BuildArgs(input, output string, preset Preset, useGPU bool) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-nostats",
		"-y",
		"-i", input,
		"-map", "0:v:0",
		"-map", "0:a?",
	}
	args = append(args, videoArgs(preset, useGPU)...)
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-b:a", audioBitrate(preset),
	)
	return append(args, output)
}

// Run compresses input into a new sibling file and returns the output
// path.
func Run(ctx context.Context, ffmpeg, input string, preset Preset, useGPU bool) (string, error) {
	output := BuildOutputPath(input, preset)
	args := BuildArgs(input, output, preset, useGPU)
	if _, err := execx.RunCapture(ctx, ffmpeg, args...); err != nil {
		return "", err
	}
	return output, nil
}

func videoArgs(preset Preset, useGPU bool) []string {
	codec := "libx264"
	if useGPU {
		codec = "h264_nvenc"
	}
	switch preset {
	case PresetQuality:
		return []string{"-c:v", codec, "-preset", "slow", "-crf", "18"}
	case PresetSpeed:
		return []string{"-c:v", codec, "-preset", "veryfast", "-crf", "28"}
	default:
		return []string{"-c:v", codec, "-preset", "medium", "-crf", "23"}
	}
}

func audioBitrate(preset Preset) string {
	switch preset {
	case PresetQuality:
		return "160k"
	case PresetSpeed:
		return "96k"
	default:
		return "128k"
	}
}
