package buffer

import (
	"testing"
	"unsafe"

	"github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

type element struct {
	Position [3]float32
	Index    uint32
}

func TestSizeOf(t *testing.T) {
	assert.Equal(t, vulkan.DeviceSize(0), SizeOf[element](0))
	assert.Equal(t, vulkan.DeviceSize(48), SizeOf[element](3))
	assert.Equal(t, vulkan.DeviceSize(4), SizeOf[uint32](1))
}

func TestWriteChecksMappingAndLength(t *testing.T) {
	unmapped := &Buffer[uint32]{Len: 2}
	assert.ErrorIs(t, unmapped.WriteBuffer([]uint32{1}), ErrNotMapped)

	backing := make([]uint32, 2)
	mapped := &Buffer[uint32]{Len: 2, mapped: true, data: unsafe.Pointer(&backing[0])}
	assert.ErrorIs(t, mapped.WriteBuffer([]uint32{1, 2, 3}), ErrOverflow)

	assert.NoError(t, mapped.WriteBuffer([]uint32{7, 9}))
	assert.Equal(t, []uint32{7, 9}, backing)
}
