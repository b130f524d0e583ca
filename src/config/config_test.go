package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, DataPathUniform, cfg.Render.DataPath)
	assert.Equal(t, float32(50), cfg.Camera.FovY)
	assert.Equal(t, float32(0.0001), cfg.Scene.SpinIncrement)
	require.Len(t, cfg.Scene.Objects, 3)
	assert.Equal(t, MeshCube, cfg.Scene.Objects[0].Mesh)
	assert.Equal(t, MeshCube, cfg.Scene.Objects[1].Mesh)
	assert.Equal(t, MeshQuad, cfg.Scene.Objects[2].Mesh)
	require.Len(t, cfg.Scene.Lights, 1)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
window:
  width: 2560
  height: 1440
camera:
  fov_y: 60
  far: 100
render:
  data_path: push
  validation: true
scene:
  objects:
    - mesh: assets/koenig.glb
      color: [0.5, 0.5, 0.5]
      translation: [0, 10, 50]
      scale: [1, 1, 1]
      rotation: [0, 3.1415927, 3.1415927]
  lights: []
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.Equal(t, 2560, cfg.Window.Width)
	assert.Equal(t, 1440, cfg.Window.Height)
	assert.Equal(t, "Vulkan Scene", cfg.Window.Title, "unset fields keep defaults")
	assert.Equal(t, float32(60), cfg.Camera.FovY)
	assert.Equal(t, float32(0.1), cfg.Camera.Near)
	assert.Equal(t, float32(100), cfg.Camera.Far)
	assert.Equal(t, DataPathPushConstant, cfg.Render.DataPath)
	assert.True(t, cfg.Render.Validation)
	require.Len(t, cfg.Scene.Objects, 1)
	assert.Equal(t, "assets/koenig.glb", cfg.Scene.Objects[0].Mesh)
	assert.Equal(t, [3]float32{0, 10, 50}, cfg.Scene.Objects[0].Translation)
	assert.Empty(t, cfg.Scene.Lights)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileDefaultsOmittedScaleAndIntensity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scene:
  objects:
    - mesh: cube
      translation: [0, 0, 2]
    - mesh: quad
      scale: [2, 0.5, 2]
  lights:
    - position: [0, -1, 2]
    - position: [1, -1, 2]
      color: [1, 0, 0]
      intensity: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	require.Len(t, cfg.Scene.Objects, 2)
	assert.Equal(t, [3]float32{1, 1, 1}, cfg.Scene.Objects[0].Scale)
	assert.Equal(t, [3]float32{0, 0, 2}, cfg.Scene.Objects[0].Translation)
	assert.Equal(t, [3]float32{2, 0.5, 2}, cfg.Scene.Objects[1].Scale)

	require.Len(t, cfg.Scene.Lights, 2)
	assert.Equal(t, LightConfig{Position: [3]float32{0, -1, 2}, Color: [3]float32{1, 1, 1}, Intensity: 1}, cfg.Scene.Lights[0])
	assert.Equal(t, LightConfig{Position: [3]float32{1, -1, 2}, Color: [3]float32{1, 0, 0}, Intensity: 0.25}, cfg.Scene.Lights[1])
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileKeepsExplicitZeroScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scene:
  objects:
    - mesh: cube
      scale: [0, 1, 1]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(cfg, path))

	assert.Equal(t, [3]float32{0, 1, 1}, cfg.Scene.Objects[0].Scale)
	assert.ErrorContains(t, cfg.Validate(), "zero scale on axis 0")
}

func TestLoadFileMissing(t *testing.T) {
	err := LoadFile(Default(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"zero fov", func(c *Config) { c.Camera.FovY = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = c.Camera.Near }},
		{"unknown data path", func(c *Config) { c.Render.DataPath = "storage" }},
		{"missing mesh", func(c *Config) { c.Scene.Objects[0].Mesh = "" }},
		{"zero scale", func(c *Config) { c.Scene.Objects[1].Scale[1] = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
