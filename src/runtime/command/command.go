// Package command abstracts recording into a Vulkan command buffer so render
// systems and meshes can be driven by a fake in tests.
package command

import (
	"unsafe"

	"github.com/goki/vulkan"
)

// Recorder is the command-recording handle passed to render systems for one
// frame.
type Recorder interface {
	BindPipeline(pipeline vulkan.Pipeline)
	BindDescriptorSets(layout vulkan.PipelineLayout, sets ...vulkan.DescriptorSet)
	PushConstants(layout vulkan.PipelineLayout, stages vulkan.ShaderStageFlags, size uint32, data unsafe.Pointer)
	BindVertexBuffers(buffers ...vulkan.Buffer)
	BindIndexBuffer(buffer vulkan.Buffer)
	Draw(vertexCount, instanceCount uint32)
	DrawIndexed(indexCount, instanceCount uint32)
}

// Buffer records into a real graphics command buffer.
type Buffer struct {
	CommandBuffer vulkan.CommandBuffer
}

func (b Buffer) BindPipeline(pipeline vulkan.Pipeline) {
	vulkan.CmdBindPipeline(b.CommandBuffer, vulkan.PipelineBindPointGraphics, pipeline)
}

func (b Buffer) BindDescriptorSets(layout vulkan.PipelineLayout, sets ...vulkan.DescriptorSet) {
	vulkan.CmdBindDescriptorSets(
		b.CommandBuffer,
		vulkan.PipelineBindPointGraphics,
		layout,
		0,
		uint32(len(sets)),
		sets,
		0,
		nil,
	)
}

func (b Buffer) PushConstants(layout vulkan.PipelineLayout, stages vulkan.ShaderStageFlags, size uint32, data unsafe.Pointer) {
	vulkan.CmdPushConstants(b.CommandBuffer, layout, stages, 0, size, data)
}

func (b Buffer) BindVertexBuffers(buffers ...vulkan.Buffer) {
	offsets := make([]vulkan.DeviceSize, len(buffers))
	vulkan.CmdBindVertexBuffers(b.CommandBuffer, 0, uint32(len(buffers)), buffers, offsets)
}

func (b Buffer) BindIndexBuffer(buffer vulkan.Buffer) {
	vulkan.CmdBindIndexBuffer(b.CommandBuffer, buffer, 0, vulkan.IndexTypeUint32)
}

func (b Buffer) Draw(vertexCount, instanceCount uint32) {
	vulkan.CmdDraw(b.CommandBuffer, vertexCount, instanceCount, 0, 0)
}

func (b Buffer) DrawIndexed(indexCount, instanceCount uint32) {
	vulkan.CmdDrawIndexed(b.CommandBuffer, indexCount, instanceCount, 0, 0, 0)
}
