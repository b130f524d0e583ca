package model

import (
	"fmt"
	"unsafe"

	"github.com/WowVeryLogin/vulkan_scene/src/runtime/buffer"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/goki/vulkan"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

var VertexBindingDescription = []vulkan.VertexInputBindingDescription{
	{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vulkan.VertexInputRateVertex,
	},
}

var VertexAttributeDescription = []vulkan.VertexInputAttributeDescription{
	{
		Binding:  0,
		Location: 0,
		Format:   vulkan.FormatR32g32b32Sfloat,
		Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
	},
	{
		Binding:  0,
		Location: 1,
		Format:   vulkan.FormatR32g32b32Sfloat,
		Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
	},
	{
		Binding:  0,
		Location: 2,
		Format:   vulkan.FormatR32g32b32Sfloat,
		Offset:   uint32(unsafe.Offsetof(Vertex{}.Normal)),
	},
	{
		Binding:  0,
		Location: 3,
		Format:   vulkan.FormatR32g32Sfloat,
		Offset:   uint32(unsafe.Offsetof(Vertex{}.UV)),
	},
}

// Builder is mesh data on the CPU side, before upload.
type Builder struct {
	Vertices []Vertex
	Indices  []uint32
}

// Model is immutable GPU geometry. Index data is optional.
type Model struct {
	vertices *buffer.Buffer[Vertex]
	indices  *buffer.Buffer[uint32]
}

func New(dev *device.Device, b *Builder) (*Model, error) {
	if len(b.Vertices) == 0 {
		return nil, ErrNoMeshes
	}
	vertices, err := buffer.NewDeviceLocal(dev, b.Vertices, vulkan.BufferUsageFlags(vulkan.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}
	m := &Model{vertices: vertices}

	if len(b.Indices) > 0 {
		if m.indices, err = buffer.NewDeviceLocal(dev, b.Indices, vulkan.BufferUsageFlags(vulkan.BufferUsageIndexBufferBit)); err != nil {
			m.Close()
			return nil, fmt.Errorf("index buffer: %w", err)
		}
	}
	return m, nil
}

func (m *Model) Bind(cmd command.Recorder) {
	cmd.BindVertexBuffers(m.vertices.Buffer)
	if m.indices != nil {
		cmd.BindIndexBuffer(m.indices.Buffer)
	}
}

func (m *Model) Draw(cmd command.Recorder) {
	if m.indices != nil {
		cmd.DrawIndexed(uint32(m.indices.Len), 1)
		return
	}
	cmd.Draw(uint32(m.vertices.Len), 1)
}

func (m *Model) Close() {
	m.vertices.Close()
	if m.indices != nil {
		m.indices.Close()
	}
}
