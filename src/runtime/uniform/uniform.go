// Package uniform keeps one host-visible uniform buffer and one descriptor
// set per frame in flight, so the CPU never writes a block the GPU may still
// be reading.
package uniform

import (
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/runtime/buffer"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/descriptors"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/goki/vulkan"
)

type PerFrame[T any] struct {
	buffers []*buffer.Buffer[T]
	sets    *descriptors.Sets
}

func NewPerFrame[T any](dev *device.Device, frames int) (*PerFrame[T], error) {
	sets, err := descriptors.NewSets(dev, []descriptors.Binding{
		{
			Type:  vulkan.DescriptorTypeUniformBuffer,
			Flags: vulkan.ShaderStageFlags(vulkan.ShaderStageVertexBit | vulkan.ShaderStageFragmentBit),
		},
	}, frames)
	if err != nil {
		return nil, err
	}

	u := &PerFrame[T]{sets: sets}
	for i := range frames {
		ubo, err := buffer.New[T](
			dev, 1, true,
			vulkan.BufferUsageFlags(vulkan.BufferUsageUniformBufferBit),
			vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyHostVisibleBit|vulkan.MemoryPropertyHostCoherentBit),
		)
		if err != nil {
			u.Close()
			return nil, fmt.Errorf("uniform buffer %d: %w", i, err)
		}
		u.buffers = append(u.buffers, ubo)
		sets.WriteBuffer(i, 0, ubo.Buffer)
	}
	return u, nil
}

func (u *PerFrame[T]) Layout() vulkan.DescriptorSetLayout {
	return u.sets.Layout
}

func (u *PerFrame[T]) Write(frameIndex int, value *T) error {
	return u.buffers[frameIndex].WriteBuffer([]T{*value})
}

func (u *PerFrame[T]) Set(frameIndex int) vulkan.DescriptorSet {
	return u.sets.Sets[frameIndex]
}

func (u *PerFrame[T]) Close() {
	for _, b := range u.buffers {
		b.Close()
	}
	u.sets.Close()
}
