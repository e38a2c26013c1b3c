// Package options persists the small user preference record kept at the
// application root.
//
// The record is loaded once per operation and written back explicitly;
// there is no ambient in-memory copy. Saves are staged and atomic like
// every other destination write in the installer.
package options

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/wraithsoul/tinythis/internal/fsx"
)

const (
	fileName = "options.toml"

	// legacyOptoutName is the pre-options.toml marker file whose presence
	// meant "the user declined the PATH prompt". It is migrated into the
	// record on first load and then deleted.
	legacyOptoutName = "path.optout"
)

// Options is the persisted preference record.
type Options struct {
	// GPU selects hardware encoding for compression runs.
	GPU bool `toml:"gpu"`
	// Path.Optout records that the user declined the PATH prompt, so
	// setup and first runs stop asking.
	Path PathOptions `toml:"path"`
}

// PathOptions groups PATH-prompt preferences.
type PathOptions struct {
	Optout bool `toml:"optout"`
}

// Load reads the record below the app root, creating it with defaults
// when absent and folding in the legacy opt-out marker when present.
func Load(appRoot string) (Options, error) {
	var o Options
	p := filepath.Join(appRoot, fileName)
	legacy := filepath.Join(appRoot, legacyOptoutName)

	needsWrite := false

	data, err := os.ReadFile(p)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &o); err != nil {
			return Options{}, fmt.Errorf("invalid %s: %w", fileName, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		needsWrite = true
	default:
		return Options{}, err
	}

	legacyPresent, err := legacyMarkerPresent(legacy)
	if err != nil {
		return Options{}, err
	}
	if legacyPresent {
		if !o.Path.Optout {
			o.Path.Optout = true
			needsWrite = true
		}
	}

	if needsWrite {
		if err := Save(appRoot, o); err != nil {
			return Options{}, err
		}
	}

	if legacyPresent {
		if err := fsx.RemoveFileIfExists(legacy); err != nil {
			return Options{}, err
		}
	}

	return o, nil
}

// Save writes the record below the app root, creating the root if needed.
func Save(appRoot string, o Options) error {
	if err := os.MkdirAll(appRoot, 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", fileName, err)
	}
	return fsx.StageFrom(strings.NewReader(string(data)), filepath.Join(appRoot, fileName))
}

// Update loads the record, applies fn, and writes it back.
func Update(appRoot string, fn func(*Options)) (Options, error) {
	o, err := Load(appRoot)
	if err != nil {
		return Options{}, err
	}
	fn(&o)
	if err := Save(appRoot, o); err != nil {
		return Options{}, err
	}
	return o, nil
}

// SetPathOptout records whether the user declined the PATH prompt.
func SetPathOptout(appRoot string, optout bool) error {
	_, err := Update(appRoot, func(o *Options) { o.Path.Optout = optout })
	return err
}

// SetGPU records the hardware-encoding preference.
func SetGPU(appRoot string, gpu bool) error {
	_, err := Update(appRoot, func(o *Options) { o.GPU = gpu })
	return err
}

func legacyMarkerPresent(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}
