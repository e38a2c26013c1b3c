package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	root := t.TempDir()

	o, err := Load(root)
	require.NoError(t, err)
	assert.False(t, o.GPU)
	assert.False(t, o.Path.Optout)
	assert.FileExists(t, filepath.Join(root, fileName), "first load creates the record")
}

func TestLoadParsesBothTomlForms(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"table form", "gpu = true\n\n[path]\noptout = true\n"},
		{"dotted-key form", "gpu = true\npath.optout = true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, fileName), []byte(tt.body), 0o644))

			o, err := Load(root)
			require.NoError(t, err)
			assert.True(t, o.GPU)
			assert.True(t, o.Path.Optout)
		})
	}
}

func TestLoadRejectsMalformedRecord(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, fileName), []byte("gpu = {"), 0o644))

	_, err := Load(root)
	assert.Error(t, err)
}

func TestLoadMigratesLegacyMarker(t *testing.T) {
	root := t.TempDir()
	marker := filepath.Join(root, legacyOptoutName)
	require.NoError(t, os.WriteFile(marker, nil, 0o644))

	o, err := Load(root)
	require.NoError(t, err)
	assert.True(t, o.Path.Optout, "legacy marker folds into the record")
	assert.NoFileExists(t, marker, "marker removed after migration")

	// The migrated value survives the marker's removal.
	o, err = Load(root)
	require.NoError(t, err)
	assert.True(t, o.Path.Optout)
}

func TestLoadLegacyMarkerWithExistingRecord(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, fileName), []byte("gpu = true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, legacyOptoutName), nil, 0o644))

	o, err := Load(root)
	require.NoError(t, err)
	assert.True(t, o.GPU, "existing record values survive migration")
	assert.True(t, o.Path.Optout, "legacy opt-out merged in")
}

func TestSetPathOptoutRoundTrip(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, SetPathOptout(root, true))
	o, err := Load(root)
	require.NoError(t, err)
	assert.True(t, o.Path.Optout)

	require.NoError(t, SetPathOptout(root, false))
	o, err = Load(root)
	require.NoError(t, err)
	assert.False(t, o.Path.Optout)
}

func TestSetGPUPreservesOtherFields(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, SetPathOptout(root, true))
	require.NoError(t, SetGPU(root, true))

	o, err := Load(root)
	require.NoError(t, err)
	assert.True(t, o.GPU)
	assert.True(t, o.Path.Optout, "gpu update must not clobber the opt-out")
}

func TestSaveCreatesAppRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tinythis")

	require.NoError(t, Save(root, Options{GPU: true}))
	o, err := Load(root)
	require.NoError(t, err)
	assert.True(t, o.GPU)
}
