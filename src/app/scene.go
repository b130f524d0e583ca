package app

import (
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/config"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/object/model"
)

// BuildScene adds one object per configured entry, sharing meshes through
// the library, and returns the configured lights. Lights are not scene
// members: they have no mesh and are drawn by the point light system.
func BuildScene(cfg config.SceneConfig, meshes *model.Library) (*object.Scene, []*object.GameObject, error) {
	scene := object.NewScene()
	for i, oc := range cfg.Objects {
		mesh, err := meshes.Acquire(oc.Mesh)
		if err != nil {
			scene.Close()
			return nil, nil, fmt.Errorf("scene object %d: %w", i, err)
		}

		obj := scene.NewObject()
		obj.Mesh = mesh
		obj.Color = oc.Color
		obj.Transform = object.Transform{
			Translation: oc.Translation,
			Scale:       oc.Scale,
			Rotation:    oc.Rotation,
		}
		if err := scene.Add(obj); err != nil {
			mesh.Release()
			scene.Close()
			return nil, nil, fmt.Errorf("scene object %d: %w", i, err)
		}
	}

	lights := make([]*object.GameObject, 0, len(cfg.Lights))
	for _, lc := range cfg.Lights {
		lights = append(lights, scene.NewPointLight(lc.Position, lc.Color, lc.Intensity, cfg.LightRadius))
	}
	return scene, lights, nil
}

// NewViewer creates the camera rig at its configured pose. It is never drawn.
func NewViewer(scene *object.Scene, cfg config.CameraConfig) *object.GameObject {
	viewer := scene.NewObject()
	viewer.Transform.Translation = cfg.Position
	viewer.Transform.Rotation = cfg.Rotation
	return viewer
}
