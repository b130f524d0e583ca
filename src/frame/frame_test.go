package frame

import (
	"testing"
	"unsafe"

	"github.com/WowVeryLogin/vulkan_scene/src/camcontroller/camera"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalUboLayout(t *testing.T) {
	var ubo GlobalUbo
	assert.Equal(t, uintptr(544), unsafe.Sizeof(ubo))
	assert.Equal(t, uintptr(192), unsafe.Offsetof(ubo.AmbientLightColor))
	assert.Equal(t, uintptr(208), unsafe.Offsetof(ubo.PointLights))
	assert.Equal(t, uintptr(528), unsafe.Offsetof(ubo.NumLights))
}

func TestPackGlobalUbo(t *testing.T) {
	cam := camera.New()
	require.NoError(t, cam.SetPerspectiveProjection(1, 1.5, 0.1, 10))
	cam.SetViewYXZ(mgl32.Vec3{1, -2, 3}, mgl32.Vec3{0, 0.5, 0})

	scene := object.NewScene()
	lights := []*object.GameObject{
		scene.NewPointLight([3]float32{0, -1, 2}, [3]float32{1, 0.5, 0}, 0.7, 0.1),
		scene.NewObject(),
		scene.NewPointLight([3]float32{3, -1, 2}, [3]float32{0, 0, 1}, 2, 0.1),
	}
	ambient := mgl32.Vec4{1, 1, 1, 0.02}

	ubo := PackGlobalUbo(cam, ambient, lights)

	assert.Equal(t, cam.Projection(), ubo.Projection)
	assert.Equal(t, cam.View(), ubo.View)
	assert.Equal(t, cam.InverseView(), ubo.InverseView)
	assert.Equal(t, ambient, ubo.AmbientLightColor)
	assert.Equal(t, int32(2), ubo.NumLights)
	assert.Equal(t, PointLightData{
		Position: mgl32.Vec4{0, -1, 2, 1},
		Color:    mgl32.Vec4{1, 0.5, 0, 0.7},
	}, ubo.PointLights[0])
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 2}, ubo.PointLights[1].Color)
	assert.Equal(t, PointLightData{}, ubo.PointLights[2])
}

func TestPackGlobalUboCapsLights(t *testing.T) {
	cam := camera.New()
	scene := object.NewScene()
	var lights []*object.GameObject
	for i := range MaxLights + 3 {
		lights = append(lights, scene.NewPointLight([3]float32{float32(i), 0, 0}, [3]float32{1, 1, 1}, 1, 0.1))
	}

	ubo := PackGlobalUbo(cam, mgl32.Vec4{}, lights)

	assert.Equal(t, int32(MaxLights), ubo.NumLights)
	assert.Equal(t, float32(MaxLights-1), ubo.PointLights[MaxLights-1].Position.X())
}
