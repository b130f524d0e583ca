package descriptors

import (
	"errors"
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/goki/vulkan"
)

// Binding describes one slot of the shared layout.
type Binding struct {
	Type  vulkan.DescriptorType
	Flags vulkan.ShaderStageFlags
}

// Sets allocates count sets with one shared layout from a pool sized for
// exactly those sets.
type Sets struct {
	Layout vulkan.DescriptorSetLayout
	Sets   []vulkan.DescriptorSet

	device   *device.Device
	bindings []Binding
	pool     vulkan.DescriptorPool
}

// PoolSizes counts descriptors per type over count sets of the layout.
func PoolSizes(bindings []Binding, count int) []vulkan.DescriptorPoolSize {
	perType := map[vulkan.DescriptorType]uint32{}
	var order []vulkan.DescriptorType
	for _, b := range bindings {
		if _, ok := perType[b.Type]; !ok {
			order = append(order, b.Type)
		}
		perType[b.Type] += uint32(count)
	}

	sizes := make([]vulkan.DescriptorPoolSize, 0, len(order))
	for _, t := range order {
		sizes = append(sizes, vulkan.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: perType[t],
		})
	}
	return sizes
}

func NewSets(device *device.Device, bindings []Binding, count int) (*Sets, error) {
	if len(bindings) == 0 || count <= 0 {
		return nil, errors.New("descriptor sets need at least one binding and one set")
	}
	s := &Sets{device: device, bindings: bindings}

	layoutBindings := make([]vulkan.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		layoutBindings[i] = vulkan.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorCount: 1,
			DescriptorType:  b.Type,
			StageFlags:      b.Flags,
		}
	}
	if err := vulkan.Error(vulkan.CreateDescriptorSetLayout(device.LogicalDevice, &vulkan.DescriptorSetLayoutCreateInfo{
		SType:        vulkan.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}, nil, &s.Layout)); err != nil {
		return nil, fmt.Errorf("create descriptor set layout: %w", err)
	}

	sizes := PoolSizes(bindings, count)
	if err := vulkan.Error(vulkan.CreateDescriptorPool(device.LogicalDevice, &vulkan.DescriptorPoolCreateInfo{
		SType:         vulkan.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
		MaxSets:       uint32(count),
	}, nil, &s.pool)); err != nil {
		s.Close()
		return nil, fmt.Errorf("create descriptor pool: %w", err)
	}

	layouts := make([]vulkan.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = s.Layout
	}
	s.Sets = make([]vulkan.DescriptorSet, count)
	if err := vulkan.Error(vulkan.AllocateDescriptorSets(device.LogicalDevice, &vulkan.DescriptorSetAllocateInfo{
		SType:              vulkan.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     s.pool,
		DescriptorSetCount: uint32(count),
		PSetLayouts:        layouts,
	}, &s.Sets[0])); err != nil {
		s.Close()
		return nil, fmt.Errorf("allocate descriptor sets: %w", err)
	}
	return s, nil
}

// WriteBuffer points binding of set at buffer.
func (s *Sets) WriteBuffer(set, binding int, buffer vulkan.Buffer) {
	vulkan.UpdateDescriptorSets(s.device.LogicalDevice, 1, []vulkan.WriteDescriptorSet{
		{
			SType:           vulkan.StructureTypeWriteDescriptorSet,
			DstSet:          s.Sets[set],
			DstBinding:      uint32(binding),
			DescriptorType:  s.bindings[binding].Type,
			DescriptorCount: 1,
			PBufferInfo: []vulkan.DescriptorBufferInfo{{
				Buffer: buffer,
				Offset: 0,
				Range:  vulkan.DeviceSize(vulkan.WholeSize),
			}},
		},
	}, 0, nil)
}

// Close destroys the pool, which frees every set, and the layout.
func (s *Sets) Close() {
	if s.pool != vulkan.NullDescriptorPool {
		vulkan.DestroyDescriptorPool(s.device.LogicalDevice, s.pool, nil)
	}
	vulkan.DestroyDescriptorSetLayout(s.device.LogicalDevice, s.Layout, nil)
}
