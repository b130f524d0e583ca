package device

import (
	"errors"
	"fmt"
	"slices"
	"unsafe"

	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/window"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

var (
	ErrNoDevice          = errors.New("no suitable physical device")
	ErrNoQueueFamily     = errors.New("no graphics queue family with present support")
	ErrNoMemoryType      = errors.New("no suitable memory type")
	ErrNoSupportedFormat = errors.New("no supported format")
)

type Device struct {
	instance       vulkan.Instance
	Surface        vulkan.Surface
	queueIdx       int
	Queue          vulkan.Queue
	physicalDevice vulkan.PhysicalDevice
	LogicalDevice  vulkan.Device
	Pool           vulkan.CommandPool
}

func New(w *window.Window, withValidation bool) (*Device, error) {
	instance, err := newInstance(withValidation, w)
	if err != nil {
		return nil, err
	}
	d := &Device{instance: instance}

	if d.Surface, err = w.CreateSurface(instance); err != nil {
		vulkan.DestroyInstance(instance, nil)
		return nil, err
	}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	physical, err := pickPhysicalDevice(d.instance)
	if err != nil {
		return err
	}
	d.physicalDevice = physical

	if d.queueIdx, err = findGraphicQueueFamily(physical, d.Surface); err != nil {
		return err
	}
	if d.LogicalDevice, err = createLogicalDevice(physical, d.queueIdx); err != nil {
		return err
	}
	vulkan.GetDeviceQueue(d.LogicalDevice, uint32(d.queueIdx), 0, &d.Queue)

	if d.Pool, err = createCommandPool(d.LogicalDevice, d.queueIdx); err != nil {
		return err
	}

	var props vulkan.PhysicalDeviceProperties
	vulkan.GetPhysicalDeviceProperties(physical, &props)
	props.Deref()
	logger.Info("Vulkan device ready",
		zap.String("device", vulkan.ToString(props.DeviceName[:])),
		zap.Int("queueFamily", d.queueIdx),
	)
	return nil
}

func checkValidationLayers() error {
	var layerCount uint32
	if err := vulkan.Error(vulkan.EnumerateInstanceLayerProperties(&layerCount, nil)); err != nil {
		return fmt.Errorf("enumerate instance layers: %w", err)
	}
	availableLayers := make([]vulkan.LayerProperties, layerCount)
	if err := vulkan.Error(vulkan.EnumerateInstanceLayerProperties(&layerCount, availableLayers)); err != nil {
		return fmt.Errorf("enumerate instance layers: %w", err)
	}

	for _, layer := range availableLayers {
		layer.Deref()
		if vulkan.ToString(layer.LayerName[:]) == validationLayer {
			return nil
		}
	}
	return fmt.Errorf("validation layer %s not found", validationLayer)
}

func instanceExtensions() ([]string, error) {
	var count uint32
	if err := vulkan.Error(vulkan.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, fmt.Errorf("enumerate instance extensions: %w", err)
	}
	props := make([]vulkan.ExtensionProperties, count)
	if err := vulkan.Error(vulkan.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, fmt.Errorf("enumerate instance extensions: %w", err)
	}
	return extensionNames(props), nil
}

func deviceExtensions(device vulkan.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vulkan.Error(vulkan.EnumerateDeviceExtensionProperties(device, "", &count, nil)); err != nil {
		return nil, fmt.Errorf("enumerate device extensions: %w", err)
	}
	props := make([]vulkan.ExtensionProperties, count)
	if err := vulkan.Error(vulkan.EnumerateDeviceExtensionProperties(device, "", &count, props)); err != nil {
		return nil, fmt.Errorf("enumerate device extensions: %w", err)
	}
	return extensionNames(props), nil
}

func extensionNames(props []vulkan.ExtensionProperties) []string {
	names := make([]string, len(props))
	for i, p := range props {
		p.Deref()
		names[i] = vulkan.ToString(p.ExtensionName[:])
	}
	return names
}

func newInstance(withValidation bool, w *window.Window) (vulkan.Instance, error) {
	if withValidation {
		if err := checkValidationLayers(); err != nil {
			return nil, err
		}
	}

	available, err := instanceExtensions()
	if err != nil {
		return nil, err
	}
	extensions := w.GetRequiredInstanceExtensions()
	if withValidation {
		extensions = append(extensions, vulkan.ExtDebugUtilsExtensionName+"\x00")
	}
	var flags vulkan.InstanceCreateFlags
	// MoltenVK only exposes its devices through portability enumeration.
	if slices.Contains(available, vulkan.KhrPortabilityEnumerationExtensionName) {
		extensions = append(extensions, vulkan.KhrPortabilityEnumerationExtensionName+"\x00")
		flags |= vulkan.InstanceCreateFlags(vulkan.InstanceCreateEnumeratePortabilityBit)
	}

	createInfo := vulkan.InstanceCreateInfo{
		SType: vulkan.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vulkan.ApplicationInfo{
			SType:              vulkan.StructureTypeApplicationInfo,
			PApplicationName:   "Vulkan Scene\x00",
			ApplicationVersion: vulkan.MakeVersion(1, 0, 0),
			PEngineName:        "vulkan_scene\x00",
			EngineVersion:      vulkan.MakeVersion(1, 0, 0),
			ApiVersion:         vulkan.MakeVersion(1, 3, 0),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		Flags:                   flags,
	}
	if withValidation {
		createInfo.EnabledLayerCount = 1
		createInfo.PpEnabledLayerNames = []string{validationLayer + "\x00"}
	}

	var instance vulkan.Instance
	if err := vulkan.Error(vulkan.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	if err := vulkan.InitInstance(instance); err != nil {
		vulkan.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("init instance: %w", err)
	}
	logger.Debug("Vulkan instance created",
		zap.Strings("extensions", extensions),
		zap.Bool("validation", withValidation),
	)
	return instance, nil
}

func pickPhysicalDevice(instance vulkan.Instance) (vulkan.PhysicalDevice, error) {
	var devicesCount uint32
	if err := vulkan.Error(vulkan.EnumeratePhysicalDevices(instance, &devicesCount, nil)); err != nil {
		return nil, fmt.Errorf("enumerate physical devices: %w", err)
	}
	devices := make([]vulkan.PhysicalDevice, devicesCount)
	if err := vulkan.Error(vulkan.EnumeratePhysicalDevices(instance, &devicesCount, devices)); err != nil {
		return nil, fmt.Errorf("enumerate physical devices: %w", err)
	}

	for _, device := range devices {
		extensions, err := deviceExtensions(device)
		if err != nil {
			return nil, err
		}
		if slices.Contains(extensions, vulkan.KhrSwapchainExtensionName) {
			return device, nil
		}
	}
	return nil, ErrNoDevice
}

func findGraphicQueueFamily(device vulkan.PhysicalDevice, surface vulkan.Surface) (int, error) {
	var queueFamilyCount uint32
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queuesFamilies := make([]vulkan.QueueFamilyProperties, queueFamilyCount)
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queuesFamilies)

	for i, family := range queuesFamilies {
		family.Deref()
		if family.QueueCount > 0 && family.QueueFlags&vulkan.QueueFlags(vulkan.QueueGraphicsBit) > 0 {
			var supported vulkan.Bool32
			vulkan.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supported)
			if supported.B() {
				return i, nil
			}
		}
	}
	return 0, ErrNoQueueFamily
}

func createLogicalDevice(device vulkan.PhysicalDevice, queueIdx int) (vulkan.Device, error) {
	available, err := deviceExtensions(device)
	if err != nil {
		return nil, err
	}
	extensions := []string{vulkan.KhrSwapchainExtensionName + "\x00"}
	if slices.Contains(available, vulkan.KhrPortabilitySubsetExtensionName) {
		extensions = append(extensions, vulkan.KhrPortabilitySubsetExtensionName+"\x00")
	}

	var logicalDevice vulkan.Device
	if err := vulkan.Error(vulkan.CreateDevice(device, &vulkan.DeviceCreateInfo{
		SType:                vulkan.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vulkan.DeviceQueueCreateInfo{
			{
				SType:            vulkan.StructureTypeDeviceQueueCreateInfo,
				QueueFamilyIndex: uint32(queueIdx),
				QueueCount:       1,
				PQueuePriorities: []float32{1.0},
			},
		},
		PEnabledFeatures:        []vulkan.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}, nil, &logicalDevice)); err != nil {
		return nil, fmt.Errorf("create logical device: %w", err)
	}
	return logicalDevice, nil
}

func createCommandPool(device vulkan.Device, queueIdx int) (vulkan.CommandPool, error) {
	var pool vulkan.CommandPool
	if err := vulkan.Error(vulkan.CreateCommandPool(device, &vulkan.CommandPoolCreateInfo{
		SType:            vulkan.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(queueIdx),
		Flags:            vulkan.CommandPoolCreateFlags(vulkan.CommandPoolCreateTransientBit | vulkan.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)); err != nil {
		return nil, fmt.Errorf("create command pool: %w", err)
	}
	return pool, nil
}

func (v *Device) findMemoryType(typeFilter uint32, properties vulkan.MemoryPropertyFlags) (uint32, error) {
	var memProperties vulkan.PhysicalDeviceMemoryProperties
	vulkan.GetPhysicalDeviceMemoryProperties(v.physicalDevice, &memProperties)
	memProperties.Deref()

	for i := uint32(0); i < memProperties.MemoryTypeCount; i++ {
		memProperties.MemoryTypes[i].Deref()
		if typeFilter&(1<<i) != 0 && (memProperties.MemoryTypes[i].PropertyFlags&properties) == properties {
			return i, nil
		}
	}
	return 0, ErrNoMemoryType
}

func (v *Device) allocate(req vulkan.MemoryRequirements, properties vulkan.MemoryPropertyFlags) (vulkan.DeviceMemory, error) {
	req.Deref()
	typeIdx, err := v.findMemoryType(req.MemoryTypeBits, properties)
	if err != nil {
		return nil, err
	}
	var memory vulkan.DeviceMemory
	if err := vulkan.Error(vulkan.AllocateMemory(v.LogicalDevice, &vulkan.MemoryAllocateInfo{
		SType:           vulkan.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIdx,
	}, nil, &memory)); err != nil {
		return nil, fmt.Errorf("allocate memory: %w", err)
	}
	return memory, nil
}

func (v *Device) CreateBuffer(
	size vulkan.DeviceSize,
	usage vulkan.BufferUsageFlags,
	memProperties vulkan.MemoryPropertyFlags,
) (vulkan.Buffer, vulkan.DeviceMemory, error) {
	var buffer vulkan.Buffer
	if err := vulkan.Error(vulkan.CreateBuffer(v.LogicalDevice, &vulkan.BufferCreateInfo{
		SType:       vulkan.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vulkan.SharingModeExclusive,
	}, nil, &buffer)); err != nil {
		return nil, nil, fmt.Errorf("create buffer: %w", err)
	}

	var memRequirements vulkan.MemoryRequirements
	vulkan.GetBufferMemoryRequirements(v.LogicalDevice, buffer, &memRequirements)
	memory, err := v.allocate(memRequirements, memProperties)
	if err != nil {
		vulkan.DestroyBuffer(v.LogicalDevice, buffer, nil)
		return nil, nil, fmt.Errorf("buffer memory: %w", err)
	}

	if err := vulkan.Error(vulkan.BindBufferMemory(v.LogicalDevice, buffer, memory, 0)); err != nil {
		vulkan.DestroyBuffer(v.LogicalDevice, buffer, nil)
		vulkan.FreeMemory(v.LogicalDevice, memory, nil)
		return nil, nil, fmt.Errorf("bind buffer memory: %w", err)
	}
	return buffer, memory, nil
}

func (v *Device) CreateImageWithInfo(
	createInfo vulkan.ImageCreateInfo,
	properties vulkan.MemoryPropertyFlags,
) (vulkan.Image, vulkan.DeviceMemory, error) {
	var image vulkan.Image
	if err := vulkan.Error(vulkan.CreateImage(v.LogicalDevice, &createInfo, nil, &image)); err != nil {
		return nil, nil, fmt.Errorf("create image: %w", err)
	}

	var memReq vulkan.MemoryRequirements
	vulkan.GetImageMemoryRequirements(v.LogicalDevice, image, &memReq)
	imageMemory, err := v.allocate(memReq, properties)
	if err != nil {
		vulkan.DestroyImage(v.LogicalDevice, image, nil)
		return nil, nil, fmt.Errorf("image memory: %w", err)
	}

	if err := vulkan.Error(vulkan.BindImageMemory(v.LogicalDevice, image, imageMemory, 0)); err != nil {
		vulkan.DestroyImage(v.LogicalDevice, image, nil)
		vulkan.FreeMemory(v.LogicalDevice, imageMemory, nil)
		return nil, nil, fmt.Errorf("bind image memory: %w", err)
	}
	return image, imageMemory, nil
}

func (v *Device) FindSupportedFormat(
	candidates []vulkan.Format,
	tiling vulkan.ImageTiling,
	features vulkan.FormatFeatureFlags,
) (vulkan.Format, error) {
	for _, format := range candidates {
		var properties vulkan.FormatProperties
		vulkan.GetPhysicalDeviceFormatProperties(v.physicalDevice, format, &properties)
		properties.Deref()

		if tiling == vulkan.ImageTilingLinear && (properties.LinearTilingFeatures&features) == features {
			return format, nil
		}
		if tiling == vulkan.ImageTilingOptimal && (properties.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}
	return vulkan.FormatUndefined, ErrNoSupportedFormat
}

type SwapchainProperties struct {
	Caps     vulkan.SurfaceCapabilities
	Formats  []vulkan.SurfaceFormat
	Presents []vulkan.PresentMode
}

func (v *Device) SwapchainSupport() (SwapchainProperties, error) {
	sp := SwapchainProperties{}

	if err := vulkan.Error(vulkan.GetPhysicalDeviceSurfaceCapabilities(v.physicalDevice, v.Surface, &sp.Caps)); err != nil {
		return sp, fmt.Errorf("query surface caps: %w", err)
	}
	sp.Caps.Deref()
	sp.Caps.CurrentExtent.Deref()
	sp.Caps.MaxImageExtent.Deref()
	sp.Caps.MinImageExtent.Deref()

	var formatCount uint32
	if err := vulkan.Error(vulkan.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.Surface, &formatCount, nil)); err != nil {
		return sp, fmt.Errorf("query surface formats: %w", err)
	}
	if formatCount != 0 {
		sp.Formats = make([]vulkan.SurfaceFormat, formatCount)
		if err := vulkan.Error(vulkan.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.Surface, &formatCount, sp.Formats)); err != nil {
			return sp, fmt.Errorf("query surface formats: %w", err)
		}
	}

	var presentCount uint32
	if err := vulkan.Error(vulkan.GetPhysicalDeviceSurfacePresentModes(v.physicalDevice, v.Surface, &presentCount, nil)); err != nil {
		return sp, fmt.Errorf("query surface present modes: %w", err)
	}
	if presentCount != 0 {
		sp.Presents = make([]vulkan.PresentMode, presentCount)
		if err := vulkan.Error(vulkan.GetPhysicalDeviceSurfacePresentModes(v.physicalDevice, v.Surface, &presentCount, sp.Presents)); err != nil {
			return sp, fmt.Errorf("query surface present modes: %w", err)
		}
	}
	return sp, nil
}

// CopyWithStagingBuffer uploads data through a temporary host-visible buffer.
// copyFn records the transfer from staging into the destination; the call
// blocks until the queue has executed it.
func CopyWithStagingBuffer[T any](
	device *Device,
	data []T,
	copyFn func(commandBuffer vulkan.CommandBuffer, staging vulkan.Buffer),
) error {
	if len(data) == 0 {
		return nil
	}
	bufferSize := vulkan.DeviceSize(len(data) * int(unsafe.Sizeof(data[0])))

	staging, memory, err := device.CreateBuffer(
		bufferSize,
		vulkan.BufferUsageFlags(vulkan.BufferUsageTransferSrcBit),
		vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyHostVisibleBit|vulkan.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return fmt.Errorf("staging buffer: %w", err)
	}
	defer func() {
		vulkan.DestroyBuffer(device.LogicalDevice, staging, nil)
		vulkan.FreeMemory(device.LogicalDevice, memory, nil)
	}()

	var mapped unsafe.Pointer
	if err := vulkan.Error(vulkan.MapMemory(device.LogicalDevice, memory, 0, bufferSize, 0, &mapped)); err != nil {
		return fmt.Errorf("map staging memory: %w", err)
	}
	copy(unsafe.Slice((*T)(mapped), len(data)), data)
	vulkan.UnmapMemory(device.LogicalDevice, memory)

	return device.SubmitOnce(func(cb vulkan.CommandBuffer) {
		copyFn(cb, staging)
	})
}

// SubmitOnce records a one-off command buffer and waits for the queue to
// drain it.
func (v *Device) SubmitOnce(record func(cb vulkan.CommandBuffer)) error {
	commandBuffer := make([]vulkan.CommandBuffer, 1)
	if err := vulkan.Error(vulkan.AllocateCommandBuffers(v.LogicalDevice, &vulkan.CommandBufferAllocateInfo{
		SType:              vulkan.StructureTypeCommandBufferAllocateInfo,
		Level:              vulkan.CommandBufferLevelPrimary,
		CommandPool:        v.Pool,
		CommandBufferCount: 1,
	}, commandBuffer)); err != nil {
		return fmt.Errorf("allocate command buffer: %w", err)
	}
	defer vulkan.FreeCommandBuffers(v.LogicalDevice, v.Pool, 1, commandBuffer)

	if err := vulkan.Error(vulkan.BeginCommandBuffer(commandBuffer[0], &vulkan.CommandBufferBeginInfo{
		SType: vulkan.StructureTypeCommandBufferBeginInfo,
		Flags: vulkan.CommandBufferUsageFlags(vulkan.CommandBufferUsageOneTimeSubmitBit),
	})); err != nil {
		return fmt.Errorf("begin command buffer: %w", err)
	}
	record(commandBuffer[0])
	if err := vulkan.Error(vulkan.EndCommandBuffer(commandBuffer[0])); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}

	if err := vulkan.Error(vulkan.QueueSubmit(v.Queue, 1, []vulkan.SubmitInfo{
		{
			SType:              vulkan.StructureTypeSubmitInfo,
			CommandBufferCount: 1,
			PCommandBuffers:    commandBuffer,
		},
	}, nil)); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := vulkan.Error(vulkan.QueueWaitIdle(v.Queue)); err != nil {
		return fmt.Errorf("wait for queue: %w", err)
	}
	return nil
}

func (v *Device) WaitIdle() error {
	if err := vulkan.Error(vulkan.DeviceWaitIdle(v.LogicalDevice)); err != nil {
		return fmt.Errorf("wait for device idle: %w", err)
	}
	return nil
}

func (v *Device) Close() {
	if v.Pool != nil {
		vulkan.DestroyCommandPool(v.LogicalDevice, v.Pool, nil)
	}
	if v.LogicalDevice != nil {
		vulkan.DestroyDevice(v.LogicalDevice, nil)
	}
	if v.Surface != nil {
		vulkan.DestroySurface(v.instance, v.Surface, nil)
	}
	vulkan.DestroyInstance(v.instance, nil)
}
