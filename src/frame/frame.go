// Package frame holds the per-frame data shared by render systems and the
// loop that drives input, simulation and rendering.
package frame

import (
	"github.com/WowVeryLogin/vulkan_scene/src/camcontroller/camera"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/goki/vulkan"
)

// MaxLights must match the array length in the shaders' global block.
const MaxLights = 10

// PointLightData is one light in the global block. Position.w is unused and
// Color.w carries the intensity.
type PointLightData struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// GlobalUbo is written once per frame into that frame's uniform buffer. The
// layout follows std140.
type GlobalUbo struct {
	Projection        mgl32.Mat4
	View              mgl32.Mat4
	InverseView       mgl32.Mat4
	AmbientLightColor mgl32.Vec4
	PointLights       [MaxLights]PointLightData
	NumLights         int32
	_                 [3]int32
}

// FrameInfo is valid only while the render systems of one frame run.
type FrameInfo struct {
	FrameIndex          int
	FrameTime           float32
	Commands            command.Recorder
	Camera              *camera.Camera
	GlobalDescriptorSet vulkan.DescriptorSet
	Objects             *object.Scene
	Lights              []*object.GameObject
}

type RenderSystem interface {
	Render(frame *FrameInfo)
}

// Simulation advances scene state once per frame, before any rendering.
type Simulation interface {
	Update(frame *FrameInfo)
}

// PackGlobalUbo fills the shared block from the camera and lights. Lights
// beyond MaxLights are dropped.
func PackGlobalUbo(cam *camera.Camera, ambient mgl32.Vec4, lights []*object.GameObject) GlobalUbo {
	ubo := GlobalUbo{
		Projection:        cam.Projection(),
		View:              cam.View(),
		InverseView:       cam.InverseView(),
		AmbientLightColor: ambient,
	}
	for _, light := range lights {
		if light.PointLight == nil || int(ubo.NumLights) == MaxLights {
			continue
		}
		ubo.PointLights[ubo.NumLights] = PointLightData{
			Position: light.Transform.Translation.Vec4(1),
			Color:    light.Color.Vec4(light.PointLight.Intensity),
		}
		ubo.NumLights++
	}
	return ubo
}
