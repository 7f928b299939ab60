package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEfficiencyCommand(t *testing.T) {
	out, err := run(t, "efficiency", "--preset", "SiAgSi")
	require.NoError(t, err)
	assert.Contains(t, out, "Qext")
	assert.Contains(t, out, "Ag")
	assert.Contains(t, out, "terms")
}

func TestTraceCommand(t *testing.T) {
	out, err := run(t, "trace", "--preset", "Si-sphere", "--flows", "3", "--extend=false")
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
	for _, f := range fc.Features {
		assert.True(t, f.Geometry.IsLineString())
	}
}

func TestTraceCommand_FixedStep(t *testing.T) {
	out, err := run(t, "trace", "--preset", "Si-sphere", "--points", "21", "--flows", "4", "--fixed-step")
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	require.NotEmpty(t, fc.Features)
	assert.LessOrEqual(t, len(fc.Features), 4)
	for _, f := range fc.Features {
		require.True(t, f.Geometry.IsLineString())
		assert.Equal(t, "XZ", f.Properties["plane"])
		assert.Len(t, f.Geometry.LineString, 12*21+1)
		assert.Len(t, f.Geometry.LineString[0], 2)
	}

	_, err = run(t, "trace", "--plane", "XY", "--fixed-step")
	assert.Error(t, err)
}

func TestTraceCommand_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.geojson")
	out, err := run(t, "trace", "--preset", "Si-sphere", "--flows", "2", "--extend=false", "--output", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	_, err = run(t, "trace", "--preset", "Si-sphere", "--flows", "2", "--output", filepath.Join(path, "nested.geojson"))
	assert.Error(t, err)
}

func TestTraceCommand_XYRejected(t *testing.T) {
	_, err := run(t, "trace", "--plane", "XY")
	assert.Error(t, err)
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "plot", "--preset", "Si-sphere", "--points", "15", "--flows", "2",
		"--comment", "test", "--output", dir)
	require.NoError(t, err)

	want := filepath.Join(dir, "test-R60-XZ-Eabs.png")
	assert.Equal(t, want, strings.TrimSpace(out))
	_, err = os.Stat(want)
	assert.NoError(t, err)
}

func TestPlotCommand_FixedStep(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "plot", "--preset", "SiAgSi", "--points", "15", "--flows", "3",
		"--fixed-step", "--comment", "fixed", "--output", dir)
	require.NoError(t, err)

	want := filepath.Join(dir, "fixed-R64-XZ-Pabs.png")
	assert.Equal(t, want, strings.TrimSpace(out))
	info, err := os.Stat(want)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wavelength: 500\nlayers: [{material: glass, radius: 50, index: {re: 1.5}}]\n"), 0o644))

	out, err := run(t, "efficiency", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "glass")
}

func TestUnknownInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"efficiency", "--preset", "nope"}},
		{"missing config", []string{"efficiency", "--config", "/does/not/exist.yaml"}},
		{"bad quantity", []string{"trace", "--quantity", "Foo"}},
		{"bad plane", []string{"trace", "--plane", "AB"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
