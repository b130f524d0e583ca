package app

import (
	"errors"
	"testing"

	"github.com/WowVeryLogin/vulkan_scene/src/config"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/object/model"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMesh struct {
	closed bool
}

func (m *stubMesh) Bind(command.Recorder) {}
func (m *stubMesh) Draw(command.Recorder) {}
func (m *stubMesh) Close() { m.closed = true }

func stubLibrary(created *[]string) *model.Library {
	return model.NewLibrary(func(source string) (model.Resource, error) {
		if source == "broken.glb" {
			return nil, errors.New("cannot parse")
		}
		*created = append(*created, source)
		return &stubMesh{}, nil
	})
}

func TestBuildSceneFromDefaults(t *testing.T) {
	var created []string
	lib := stubLibrary(&created)
	cfg := config.Default()

	scene, lights, err := BuildScene(cfg.Scene, lib)
	require.NoError(t, err)

	assert.Equal(t, 3, scene.Len())
	assert.Equal(t, []string{model.SourceCube, model.SourceQuad}, created)
	assert.Equal(t, 2, lib.Refs(model.SourceCube))

	objects := scene.Objects()
	assert.Same(t, objects[0].Mesh, objects[1].Mesh)
	assert.Equal(t, mgl32.Vec3{0.8, 0.3, 0.1}, objects[0].Color)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, objects[0].Transform.Scale)

	require.Len(t, lights, 1)
	assert.Nil(t, lights[0].Mesh)
	assert.Equal(t, &object.PointLight{Intensity: 1, Radius: 0.1}, lights[0].PointLight)
	_, inScene := scene.Get(lights[0].ID())
	assert.False(t, inScene)

	scene.Close()
	assert.Equal(t, 0, lib.Len())
}

func TestBuildSceneReleasesMeshesOnError(t *testing.T) {
	var created []string
	lib := stubLibrary(&created)
	cfg := config.SceneConfig{
		Objects: []config.ObjectConfig{
			{Mesh: model.SourceCube, Scale: [3]float32{1, 1, 1}},
			{Mesh: "broken.glb", Scale: [3]float32{1, 1, 1}},
		},
	}

	_, _, err := BuildScene(cfg, lib)
	assert.ErrorContains(t, err, "scene object 1")
	assert.Equal(t, 0, lib.Len())
}

func TestBuildSceneRejectsZeroScale(t *testing.T) {
	var created []string
	lib := stubLibrary(&created)
	cfg := config.SceneConfig{
		Objects: []config.ObjectConfig{{Mesh: model.SourceQuad}},
	}

	_, _, err := BuildScene(cfg, lib)
	assert.ErrorIs(t, err, object.ErrZeroScale)
	assert.Equal(t, 0, lib.Len())
}

func TestNewViewerUsesCameraPose(t *testing.T) {
	scene := object.NewScene()
	cam := config.Default().Camera
	cam.Rotation = [3]float32{0.1, 0.2, 0}

	viewer := NewViewer(scene, cam)

	assert.Equal(t, mgl32.Vec3(cam.Position), viewer.Transform.Translation)
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0}, viewer.Transform.Rotation)
	assert.Equal(t, 0, scene.Len())
}
