package buffer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/goki/vulkan"
)

var (
	ErrNotMapped = errors.New("buffer is not host mapped")
	ErrOverflow  = errors.New("write exceeds buffer length")
)

// Buffer is a typed GPU buffer of Len elements of T.
type Buffer[T any] struct {
	Buffer vulkan.Buffer
	Len    int

	device *device.Device
	memory vulkan.DeviceMemory
	mapped bool
	data   unsafe.Pointer
}

func New[T any](
	dev *device.Device,
	length int,
	mapped bool,
	usage vulkan.BufferUsageFlags,
	memoryProps vulkan.MemoryPropertyFlags,
) (*Buffer[T], error) {
	size := SizeOf[T](length)
	buffer, memory, err := dev.CreateBuffer(size, usage, memoryProps)
	if err != nil {
		return nil, err
	}

	b := &Buffer[T]{
		Buffer: buffer,
		Len:    length,
		device: dev,
		memory: memory,
	}
	if mapped {
		if err := vulkan.Error(vulkan.MapMemory(dev.LogicalDevice, memory, 0, size, 0, &b.data)); err != nil {
			b.Close()
			return nil, fmt.Errorf("map buffer memory: %w", err)
		}
		b.mapped = true
	}
	return b, nil
}

// NewDeviceLocal creates a device-local buffer and fills it from data via a
// staging copy.
func NewDeviceLocal[T any](dev *device.Device, data []T, usage vulkan.BufferUsageFlags) (*Buffer[T], error) {
	b, err := New[T](dev, len(data), false,
		usage|vulkan.BufferUsageFlags(vulkan.BufferUsageTransferDstBit),
		vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return nil, err
	}
	if err := b.InitWithStaging(data); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// SizeOf is the byte size of n elements of T.
func SizeOf[T any](n int) vulkan.DeviceSize {
	var t T
	return vulkan.DeviceSize(n * int(unsafe.Sizeof(t)))
}

func (b *Buffer[T]) InitWithStaging(data []T) error {
	if len(data) > b.Len {
		return fmt.Errorf("%w: %d > %d", ErrOverflow, len(data), b.Len)
	}
	size := SizeOf[T](len(data))
	return device.CopyWithStagingBuffer(b.device, data, func(cb vulkan.CommandBuffer, staging vulkan.Buffer) {
		vulkan.CmdCopyBuffer(cb, staging, b.Buffer, 1, []vulkan.BufferCopy{
			{
				SrcOffset: 0,
				DstOffset: 0,
				Size:      size,
			},
		})
	})
}

// WriteBuffer copies data into the mapped memory. Host-coherent memory needs
// no flush.
func (b *Buffer[T]) WriteBuffer(data []T) error {
	if !b.mapped {
		return ErrNotMapped
	}
	if len(data) > b.Len {
		return fmt.Errorf("%w: %d > %d", ErrOverflow, len(data), b.Len)
	}
	copy(unsafe.Slice((*T)(b.data), b.Len), data)
	return nil
}

func (b *Buffer[T]) Close() {
	if b.mapped {
		vulkan.UnmapMemory(b.device.LogicalDevice, b.memory)
		b.data = nil
		b.mapped = false
	}
	vulkan.DestroyBuffer(b.device.LogicalDevice, b.Buffer, nil)
	vulkan.FreeMemory(b.device.LogicalDevice, b.memory, nil)
}
