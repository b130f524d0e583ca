package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/goki/vulkan"
)

const spirvMagic = 0x07230203

var ErrNotSPIRV = errors.New("not a SPIR-V module")

// Words converts a little-endian SPIR-V binary into the word slice Vulkan
// consumes.
func Words(raw []byte) ([]uint32, error) {
	const sizeofUint32 = 4
	if len(raw) == 0 || len(raw)%sizeofUint32 != 0 {
		return nil, fmt.Errorf("%w: size %d", ErrNotSPIRV, len(raw))
	}
	result := make([]uint32, len(raw)/sizeofUint32)
	for i := range result {
		result[i] = binary.LittleEndian.Uint32(raw[i*sizeofUint32:])
	}
	if result[0] != spirvMagic {
		return nil, fmt.Errorf("%w: magic %#x", ErrNotSPIRV, result[0])
	}
	return result, nil
}

func CreateShaderModule(path string, logicalDevice vulkan.Device) (vulkan.ShaderModule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shader: %w", err)
	}
	code, err := Words(raw)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", path, err)
	}

	var shaderModule vulkan.ShaderModule
	if err := vulkan.Error(vulkan.CreateShaderModule(logicalDevice, &vulkan.ShaderModuleCreateInfo{
		SType:    vulkan.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(raw)),
		PCode:    code,
	}, nil, &shaderModule)); err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", path, err)
	}
	return shaderModule, nil
}
