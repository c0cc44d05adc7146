package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateJSON = `{
    "__type__": "Machine",
    "channels": {
        "drive": {
            "__type__": "SingleChannel",
            "controller": "con1",
            "port": 3,
            "offset": 0.1
        }
    }
}
`

func writeState(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(stateJSON), 0o644))
	return path
}

func TestRunGenerate(t *testing.T) {
	var out, errOut bytes.Buffer
	a, err := NewApp(&out, &errOut, &Config{
		StatePath: writeState(t),
		Mode:      "generate",
		LogFormat: "text",
		LogLevel:  "error",
	})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	var cfg map[string]any
	require.NoError(t, gojson.Unmarshal(out.Bytes(), &cfg))
	assert.Contains(t, cfg, "controllers")
	assert.Contains(t, cfg["elements"].(map[string]any), "drive")
}

func TestRunResave(t *testing.T) {
	var out, errOut bytes.Buffer
	a, err := NewApp(&out, &errOut, &Config{
		StatePath: writeState(t),
		Mode:      "resave",
		LogFormat: "json",
		LogLevel:  "error",
	})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	var doc map[string]any
	require.NoError(t, gojson.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "Machine", doc["__type__"])
}

func TestRunMissingState(t *testing.T) {
	var out, errOut bytes.Buffer
	a, err := NewApp(&out, &errOut, &Config{
		StatePath: filepath.Join(t.TempDir(), "absent.json"),
		Mode:      "generate",
		LogFormat: "text",
		LogLevel:  "error",
	})
	require.NoError(t, err)

	assert.Error(t, a.Run(context.Background()))
}

func TestNewAppLoadsManifests(t *testing.T) {
	dir := t.TempDir()
	manifest := `
component "Mixer" {
  field "gain" {
    type    = float
    default = 1.0
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mixer.hcl"), []byte(manifest), 0o644))

	var out, errOut bytes.Buffer
	a, err := NewApp(&out, &errOut, &Config{
		StatePath:     writeState(t),
		Mode:          "generate",
		ManifestsPath: dir,
		LogFormat:     "text",
		LogLevel:      "error",
	})
	require.NoError(t, err)
	assert.True(t, a.Registry().Has("Mixer"))
	assert.True(t, a.Registry().Has("Machine"), "built-in catalogue stays registered")
}

func TestNewAppBadManifestPath(t *testing.T) {
	var out, errOut bytes.Buffer
	_, err := NewApp(&out, &errOut, &Config{
		StatePath:     writeState(t),
		Mode:          "generate",
		ManifestsPath: filepath.Join(t.TempDir(), "missing"),
		LogFormat:     "text",
		LogLevel:      "error",
	})
	assert.Error(t, err)
}
