package pointlights

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/pipeline"
	"github.com/goki/vulkan"
)

const pushStages = vulkan.ShaderStageFlags(vulkan.ShaderStageVertexBit | vulkan.ShaderStageFragmentBit)

// PushData selects one light of the global block and sizes its billboard.
type PushData struct {
	Index  int32
	Radius float32
	_      [2]float32
}

// PointLightsRenderer draws every light as a camera-facing disc. The quad is
// generated in the vertex shader, so the pipeline has no vertex input.
type PointLightsRenderer struct {
	pipeline vulkan.Pipeline
	layout   vulkan.PipelineLayout

	owned *pipeline.Pipeline
}

func New(
	dev *device.Device,
	renderPass vulkan.RenderPass,
	globalLayout vulkan.DescriptorSetLayout,
	shaderDir string,
) (*PointLightsRenderer, error) {
	p, err := pipeline.New(dev, pipeline.PipelineConfig{
		RenderPass: renderPass,
		VertShader: filepath.Join(shaderDir, "point_light.vert.spv"),
		FragShader: filepath.Join(shaderDir, "point_light.frag.spv"),
		SetLayouts: []vulkan.DescriptorSetLayout{globalLayout},
		PushConstants: []vulkan.PushConstantRange{
			{
				StageFlags: pushStages,
				Size:       uint32(unsafe.Sizeof(PushData{})),
			},
		},
		AlphaBlend: true,
	})
	if err != nil {
		return nil, fmt.Errorf("point light renderer: %w", err)
	}
	return &PointLightsRenderer{
		pipeline: p.Pipeline,
		layout:   p.Layout,
		owned:    p,
	}, nil
}

func (d *PointLightsRenderer) Render(f *frame.FrameInfo) {
	cmd := f.Commands
	cmd.BindPipeline(d.pipeline)
	cmd.BindDescriptorSets(d.layout, f.GlobalDescriptorSet)

	var index int32
	for _, light := range f.Lights {
		if light.PointLight == nil {
			continue
		}
		if index == frame.MaxLights {
			break
		}
		data := PushData{
			Index:  index,
			Radius: light.PointLight.Radius,
		}
		cmd.PushConstants(d.layout, pushStages, uint32(unsafe.Sizeof(data)), unsafe.Pointer(&data))
		cmd.Draw(6, 1)
		index++
	}
}

func (d *PointLightsRenderer) Close() {
	if d.owned != nil {
		d.owned.Close()
	}
}
