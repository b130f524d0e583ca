// Package config holds the application settings and loads them from YAML and
// command-line flags.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Data paths for per-object shading data.
const (
	DataPathUniform      = "uniform"
	DataPathPushConstant = "push"
)

// Built-in mesh sources. Anything else is treated as a glTF file path.
const (
	MeshCube = "cube"
	MeshQuad = "quad"
)

// Config holds all settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	Render  RenderConfig  `yaml:"render"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// CameraConfig describes the projection and the viewer rig.
type CameraConfig struct {
	FovY      float32    `yaml:"fov_y"` // degrees
	Near      float32    `yaml:"near"`
	Far       float32    `yaml:"far"`
	MoveSpeed float32    `yaml:"move_speed"`
	LookSpeed float32    `yaml:"look_speed"`
	Position  [3]float32 `yaml:"position"`
	Rotation  [3]float32 `yaml:"rotation"`
}

type RenderConfig struct {
	DataPath   string     `yaml:"data_path"`
	ShaderDir  string     `yaml:"shader_dir"`
	Validation bool       `yaml:"validation"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// SceneConfig lists everything drawn by the render systems.
type SceneConfig struct {
	Objects       []ObjectConfig `yaml:"objects"`
	Ambient       [4]float32     `yaml:"ambient"` // rgb + intensity
	Lights        []LightConfig  `yaml:"lights"`
	LightRadius   float32        `yaml:"light_radius"`
	SpinIncrement float32        `yaml:"spin_increment"` // radians per frame per axis
}

type ObjectConfig struct {
	Mesh        string     `yaml:"mesh"`
	Color       [3]float32 `yaml:"color"`
	Translation [3]float32 `yaml:"translation"`
	Scale       [3]float32 `yaml:"scale"`
	Rotation    [3]float32 `yaml:"rotation"`
}

// UnmarshalYAML starts each object at unit scale so an omitted scale is not
// read as zero. An explicit zero is kept and rejected by Validate.
func (o *ObjectConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ObjectConfig
	obj := plain{Scale: [3]float32{1, 1, 1}}
	if err := value.Decode(&obj); err != nil {
		return err
	}
	*o = ObjectConfig(obj)
	return nil
}

type LightConfig struct {
	Position  [3]float32 `yaml:"position"`
	Color     [3]float32 `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
}

// UnmarshalYAML defaults an omitted light to white at full intensity.
func (l *LightConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain LightConfig
	light := plain{Color: [3]float32{1, 1, 1}, Intensity: 1}
	if err := value.Decode(&light); err != nil {
		return err
	}
	*l = LightConfig(light)
	return nil
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns the demo scene: two spinning cubes sharing one mesh over a
// floor quad, lit by a single point light.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Vulkan Scene",
		},
		Camera: CameraConfig{
			FovY:      50,
			Near:      0.1,
			Far:       1000,
			MoveSpeed: 3,
			LookSpeed: 1.5,
			Position:  [3]float32{0, -0.5, -1},
		},
		Render: RenderConfig{
			DataPath:   DataPathUniform,
			ShaderDir:  "shaders",
			ClearColor: [4]float32{0.01, 0.01, 0.01, 1},
		},
		Scene: SceneConfig{
			Objects: []ObjectConfig{
				{
					Mesh:        MeshCube,
					Color:       [3]float32{0.8, 0.3, 0.1},
					Translation: [3]float32{-0.75, 0, 2.5},
					Scale:       [3]float32{0.5, 0.5, 0.5},
				},
				{
					Mesh:        MeshCube,
					Color:       [3]float32{0.1, 0.4, 0.8},
					Translation: [3]float32{0.75, 0, 2.5},
					Scale:       [3]float32{0.5, 0.5, 0.5},
				},
				{
					Mesh:        MeshQuad,
					Color:       [3]float32{0.72, 0.72, 0.72},
					Translation: [3]float32{0, 0.5, 2.5},
					Scale:       [3]float32{4, 1, 4},
				},
			},
			Ambient: [4]float32{1, 1, 1, 0.02},
			Lights: []LightConfig{
				{Position: [3]float32{0, -1, 2}, Color: [3]float32{1, 1, 1}, Intensity: 1},
			},
			LightRadius:   0.1,
			SpinIncrement: 0.0001,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings that would produce degenerate matrices or an
// unknown render path.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		errs = append(errs, fmt.Errorf("camera fov_y %v out of range (0, 180)", c.Camera.FovY))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip range [%v, %v] is invalid", c.Camera.Near, c.Camera.Far))
	}
	switch c.Render.DataPath {
	case DataPathUniform, DataPathPushConstant:
	default:
		errs = append(errs, fmt.Errorf("unknown render data_path %q", c.Render.DataPath))
	}
	for i, obj := range c.Scene.Objects {
		if obj.Mesh == "" {
			errs = append(errs, fmt.Errorf("scene object %d has no mesh", i))
		}
		for axis, s := range obj.Scale {
			if s == 0 {
				errs = append(errs, fmt.Errorf("scene object %d has zero scale on axis %d", i, axis))
			}
		}
	}
	return errors.Join(errs...)
}
