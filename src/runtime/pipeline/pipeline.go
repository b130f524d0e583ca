package pipeline

import (
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/shader"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

type PipelineConfig struct {
	RenderPass vulkan.RenderPass
	VertShader string
	FragShader string

	SetLayouts    []vulkan.DescriptorSetLayout
	PushConstants []vulkan.PushConstantRange

	// Empty for pipelines that generate vertices in the shader.
	Bindings   []vulkan.VertexInputBindingDescription
	Attributes []vulkan.VertexInputAttributeDescription

	CullMode   vulkan.CullModeFlagBits
	AlphaBlend bool
}

// Pipeline is a graphics pipeline together with its layout and shader
// modules, which share its lifetime.
type Pipeline struct {
	Layout   vulkan.PipelineLayout
	Pipeline vulkan.Pipeline

	device     *device.Device
	vertShader vulkan.ShaderModule
	fragShader vulkan.ShaderModule
}

func NewLayout(
	device *device.Device,
	descriptorsLayout []vulkan.DescriptorSetLayout,
	constRanges []vulkan.PushConstantRange,
) (vulkan.PipelineLayout, error) {
	var layout vulkan.PipelineLayout
	if err := vulkan.Error(vulkan.CreatePipelineLayout(device.LogicalDevice, &vulkan.PipelineLayoutCreateInfo{
		SType:                  vulkan.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: uint32(len(constRanges)),
		PPushConstantRanges:    constRanges,
		SetLayoutCount:         uint32(len(descriptorsLayout)),
		PSetLayouts:            descriptorsLayout,
	}, nil, &layout)); err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	return layout, nil
}

func New(device *device.Device, config PipelineConfig) (*Pipeline, error) {
	p := &Pipeline{device: device}

	var err error
	if p.vertShader, err = shader.CreateShaderModule(config.VertShader, device.LogicalDevice); err != nil {
		return nil, err
	}
	if p.fragShader, err = shader.CreateShaderModule(config.FragShader, device.LogicalDevice); err != nil {
		p.Close()
		return nil, err
	}
	if p.Layout, err = NewLayout(device, config.SetLayouts, config.PushConstants); err != nil {
		p.Close()
		return nil, err
	}

	pipelines := make([]vulkan.Pipeline, 1)
	if err := vulkan.Error(vulkan.CreateGraphicsPipelines(device.LogicalDevice, vulkan.NullPipelineCache, 1,
		[]vulkan.GraphicsPipelineCreateInfo{p.createInfo(config)}, nil, pipelines)); err != nil {
		p.Close()
		return nil, fmt.Errorf("create pipeline for %s: %w", config.VertShader, err)
	}
	p.Pipeline = pipelines[0]

	logger.Debug("Pipeline created",
		zap.String("vert", config.VertShader),
		zap.String("frag", config.FragShader),
		zap.Bool("alphaBlend", config.AlphaBlend),
	)
	return p, nil
}

func colorBlendAttachment(alphaBlend bool) vulkan.PipelineColorBlendAttachmentState {
	state := vulkan.PipelineColorBlendAttachmentState{
		ColorWriteMask:      vulkan.ColorComponentFlags(vulkan.ColorComponentRBit | vulkan.ColorComponentGBit | vulkan.ColorComponentBBit | vulkan.ColorComponentABit),
		SrcColorBlendFactor: vulkan.BlendFactorOne,
		DstColorBlendFactor: vulkan.BlendFactorZero,
		ColorBlendOp:        vulkan.BlendOpAdd,
		SrcAlphaBlendFactor: vulkan.BlendFactorOne,
		DstAlphaBlendFactor: vulkan.BlendFactorZero,
		AlphaBlendOp:        vulkan.BlendOpAdd,
	}
	if alphaBlend {
		state.BlendEnable = vulkan.True
		state.SrcColorBlendFactor = vulkan.BlendFactorSrcAlpha
		state.DstColorBlendFactor = vulkan.BlendFactorOneMinusSrcAlpha
	}
	return state
}

func (p *Pipeline) createInfo(config PipelineConfig) vulkan.GraphicsPipelineCreateInfo {
	return vulkan.GraphicsPipelineCreateInfo{
		SType:      vulkan.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: 2,
		PStages: []vulkan.PipelineShaderStageCreateInfo{
			{
				SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vulkan.ShaderStageVertexBit,
				Module: p.vertShader,
				PName:  "main\x00",
			},
			{
				SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vulkan.ShaderStageFragmentBit,
				Module: p.fragShader,
				PName:  "main\x00",
			},
		},
		PVertexInputState: &vulkan.PipelineVertexInputStateCreateInfo{
			SType:                           vulkan.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(config.Bindings)),
			PVertexBindingDescriptions:      config.Bindings,
			VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
			PVertexAttributeDescriptions:    config.Attributes,
		},
		PInputAssemblyState: &vulkan.PipelineInputAssemblyStateCreateInfo{
			SType:                  vulkan.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vulkan.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vulkan.False,
		},
		PViewportState: &vulkan.PipelineViewportStateCreateInfo{
			SType:         vulkan.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vulkan.PipelineRasterizationStateCreateInfo{
			SType:       vulkan.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vulkan.PolygonModeFill,
			LineWidth:   1.0,
			CullMode:    vulkan.CullModeFlags(config.CullMode),
			FrontFace:   vulkan.FrontFaceClockwise,
		},
		PMultisampleState: &vulkan.PipelineMultisampleStateCreateInfo{
			SType:                vulkan.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vulkan.SampleCount1Bit,
			MinSampleShading:     1.0,
		},
		PColorBlendState: &vulkan.PipelineColorBlendStateCreateInfo{
			SType:           vulkan.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOp:         vulkan.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments:    []vulkan.PipelineColorBlendAttachmentState{colorBlendAttachment(config.AlphaBlend)},
		},
		PDepthStencilState: &vulkan.PipelineDepthStencilStateCreateInfo{
			SType:            vulkan.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  vulkan.True,
			DepthWriteEnable: vulkan.True,
			DepthCompareOp:   vulkan.CompareOpLess,
			MinDepthBounds:   0,
			MaxDepthBounds:   1,
		},
		PDynamicState: &vulkan.PipelineDynamicStateCreateInfo{
			SType:             vulkan.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vulkan.DynamicState{
				vulkan.DynamicStateViewport,
				vulkan.DynamicStateScissor,
			},
		},
		Layout:             p.Layout,
		RenderPass:         config.RenderPass,
		Subpass:            0,
		BasePipelineIndex:  -1,
		BasePipelineHandle: vulkan.NullPipeline,
	}
}

func (p *Pipeline) Close() {
	dev := p.device.LogicalDevice
	if p.Pipeline != vulkan.NullPipeline {
		vulkan.DestroyPipeline(dev, p.Pipeline, nil)
	}
	if p.Layout != vulkan.NullPipelineLayout {
		vulkan.DestroyPipelineLayout(dev, p.Layout, nil)
	}
	if p.fragShader != vulkan.NullShaderModule {
		vulkan.DestroyShaderModule(dev, p.fragShader, nil)
	}
	if p.vertShader != vulkan.NullShaderModule {
		vulkan.DestroyShaderModule(dev, p.vertShader, nil)
	}
}
