package animation

import (
	"testing"

	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mesh struct{}

func (mesh) Bind(command.Recorder) {}
func (mesh) Draw(command.Recorder) {}

func TestIdleRotationSpinsMeshesOnly(t *testing.T) {
	scene := object.NewScene()
	cube := scene.NewObject()
	cube.Mesh = mesh{}
	cube.Transform.Translation = mgl32.Vec3{1, 2, 3}
	empty := scene.NewObject()
	require.NoError(t, scene.Add(cube))
	require.NoError(t, scene.Add(empty))

	spin := NewIdleRotation(0.25)
	info := &frame.FrameInfo{Objects: scene}
	for range 3 {
		spin.Update(info)
	}

	assert.InDeltaSlice(t, []float32{0.75, 0.75, 0.75}, cube.Transform.Rotation[:], 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, cube.Transform.Translation)
	assert.Equal(t, mgl32.Vec3{}, empty.Transform.Rotation)
}

func TestIdleRotationZeroIncrement(t *testing.T) {
	scene := object.NewScene()
	cube := scene.NewObject()
	cube.Mesh = mesh{}
	cube.Transform.Rotation = mgl32.Vec3{0.1, 0.2, 0.3}
	require.NoError(t, scene.Add(cube))

	NewIdleRotation(0).Update(&frame.FrameInfo{Objects: scene})

	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, cube.Transform.Rotation)
}
