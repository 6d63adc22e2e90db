package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio3d.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: photos/cat.png
depth: 45
resolution: 80
storage: sqlite
background: edge
show_stats: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Resolve(Flags{Resolution: 64, Output: "out/cat.glb"})

	assert.Equal(t, "photos/cat.png", cfg.InputPath)
	assert.Equal(t, "out/cat.glb", cfg.OutputPath)
	assert.Equal(t, 45.0, cfg.Depth)
	assert.Equal(t, 64, cfg.Resolution, "flag wins over file")
	assert.Equal(t, "sqlite", cfg.Storage)
	assert.True(t, cfg.ShowStats)
	assert.Equal(t, DefaultStateDir, cfg.StateDir)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.InDelta(t, 0.45, cfg.MeshDepth(), 1e-12)
	assert.NoError(t, cfg.Validate())
}

func TestDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{})
	assert.Equal(t, 30.0, cfg.Depth)
	assert.Equal(t, 50, cfg.Resolution)
	assert.Equal(t, "file", cfg.Storage)
	assert.Equal(t, DefaultVisionURL, cfg.VisionURL)
	assert.NoError(t, cfg.Validate())
}

func TestZeroDepthFlag(t *testing.T) {
	zero := 0.0
	cfg := Config{Depth: 45}
	cfg.Resolve(Flags{Depth: &zero})
	assert.Zero(t, cfg.Depth)
	assert.Zero(t, cfg.MeshDepth())
	assert.NoError(t, cfg.Validate())

	var unset Config
	unset.Resolve(Flags{})
	assert.Equal(t, float64(DefaultDepth), unset.Depth)
}

func TestSaveRoundTrip(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{Input: "clip.mp4", ExtractAudio: true, Frame: 3})
	cfg.BuildVersion = "dev"

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))
	back, err := Load(path)
	require.NoError(t, err)

	cfg.BuildVersion = ""
	assert.Equal(t, cfg, back)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"depth", func(c *Config) { c.Depth = 120 }},
		{"resolution", func(c *Config) { c.Resolution = 1 }},
		{"frame", func(c *Config) { c.Frame = -1 }},
		{"background", func(c *Config) { c.Background = "magic" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.Resolve(Flags{})
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("depth: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
