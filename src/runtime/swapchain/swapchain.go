package swapchain

import (
	"errors"
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

const MaxFramesInFlight = 2

const (
	maxUint32 = ^uint32(0)
	maxUint64 = ^uint64(0)
)

// ErrOutOfDate means the surface changed and the swapchain has to be rebuilt
// before the next frame.
var ErrOutOfDate = errors.New("swapchain out of date")

var ErrNoSurfaceFormat = errors.New("surface reports no formats")

// SwapchainFactory owns what survives a swapchain rebuild: the render pass,
// the per-frame sync objects and the chosen formats.
type SwapchainFactory struct {
	Swapchain  *Swapchain
	RenderPass vulkan.RenderPass

	device      *device.Device
	syncObjects []syncObject

	surfaceFormat vulkan.SurfaceFormat
	presentMode   vulkan.PresentMode
	depthFormat   vulkan.Format
}

func New(device *device.Device, windowExtent vulkan.Extent2D) (*SwapchainFactory, error) {
	sp, err := device.SwapchainSupport()
	if err != nil {
		return nil, err
	}
	if len(sp.Formats) == 0 {
		return nil, ErrNoSurfaceFormat
	}

	sf := &SwapchainFactory{
		device:        device,
		surfaceFormat: chooseSwapSurfaceFormat(sp.Formats),
		presentMode:   chooseSwapPresentMode(sp.Presents),
	}
	if sf.depthFormat, err = findDepthFormat(device); err != nil {
		return nil, fmt.Errorf("depth format: %w", err)
	}
	if sf.RenderPass, err = createRenderPass(device, sf.surfaceFormat.Format, sf.depthFormat); err != nil {
		return nil, err
	}
	if sf.syncObjects, err = createSyncObjects(device); err != nil {
		sf.Close()
		return nil, err
	}
	if sf.Swapchain, err = sf.newSwapchain(windowExtent, nil); err != nil {
		sf.Close()
		return nil, err
	}
	return sf, nil
}

func (sf *SwapchainFactory) Close() {
	if sf.Swapchain != nil {
		sf.Swapchain.Close()
	}
	for _, sync := range sf.syncObjects {
		sync.destroy(sf.device.LogicalDevice)
	}
	vulkan.DestroyRenderPass(sf.device.LogicalDevice, sf.RenderPass, nil)
}

// UpdateSwapchain rebuilds the swapchain for a new extent. The caller must
// make sure the device is idle.
func (sf *SwapchainFactory) UpdateSwapchain(extent vulkan.Extent2D) error {
	oldSwapchain := sf.Swapchain
	next, err := sf.newSwapchain(extent, oldSwapchain)
	if err != nil {
		return err
	}
	sf.Swapchain = next
	oldSwapchain.Close()

	logger.Info("Swapchain recreated",
		zap.Uint32("width", next.Extent.Width),
		zap.Uint32("height", next.Extent.Height),
		zap.Int("images", next.ImageCount),
	)
	return nil
}

type Swapchain struct {
	syncObjects    []syncObject
	device         *device.Device
	views          []vulkan.ImageView
	swapchain      vulkan.Swapchain
	depthResources []depthImage
	imagesInFlight []vulkan.Fence

	Extent       vulkan.Extent2D
	FrameBuffers []vulkan.Framebuffer

	ImageCount int
}

func chooseSwapSurfaceFormat(formats []vulkan.SurfaceFormat) vulkan.SurfaceFormat {
	for i := range formats {
		formats[i].Deref()
		if formats[i].Format == vulkan.FormatB8g8r8a8Srgb && formats[i].ColorSpace == vulkan.ColorSpaceSrgbNonlinear {
			return formats[i]
		}
	}
	return formats[0]
}

func chooseSwapPresentMode(modes []vulkan.PresentMode) vulkan.PresentMode {
	for _, mode := range modes {
		if mode == vulkan.PresentModeMailbox {
			return mode
		}
	}
	return vulkan.PresentModeFifo
}

func chooseSwapExtent(windowExtent vulkan.Extent2D, caps vulkan.SurfaceCapabilities) vulkan.Extent2D {
	if caps.CurrentExtent.Width != maxUint32 {
		return caps.CurrentExtent
	}
	windowExtent.Width = max(caps.MinImageExtent.Width, min(caps.MaxImageExtent.Width, windowExtent.Width))
	windowExtent.Height = max(caps.MinImageExtent.Height, min(caps.MaxImageExtent.Height, windowExtent.Height))
	return windowExtent
}

func chooseImageCount(caps vulkan.SurfaceCapabilities) uint32 {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}
	return imageCount
}

func (s *Swapchain) createSwapchain(
	sp device.SwapchainProperties,
	surfaceFormat vulkan.SurfaceFormat,
	presentMode vulkan.PresentMode,
	oldSwapchain vulkan.Swapchain,
) ([]vulkan.Image, error) {
	if err := vulkan.Error(vulkan.CreateSwapchain(s.device.LogicalDevice, &vulkan.SwapchainCreateInfo{
		SType:            vulkan.StructureTypeSwapchainCreateInfo,
		Surface:          s.device.Surface,
		OldSwapchain:     oldSwapchain,
		MinImageCount:    chooseImageCount(sp.Caps),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      s.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vulkan.ImageUsageFlags(vulkan.ImageUsageColorAttachmentBit),
		ImageSharingMode: vulkan.SharingModeExclusive,
		PreTransform:     sp.Caps.CurrentTransform,
		CompositeAlpha:   vulkan.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vulkan.True,
	}, nil, &s.swapchain)); err != nil {
		return nil, fmt.Errorf("create swapchain: %w", err)
	}

	var imagesCount uint32
	if err := vulkan.Error(vulkan.GetSwapchainImages(s.device.LogicalDevice, s.swapchain, &imagesCount, nil)); err != nil {
		return nil, fmt.Errorf("get swapchain image count: %w", err)
	}
	images := make([]vulkan.Image, imagesCount)
	if err := vulkan.Error(vulkan.GetSwapchainImages(s.device.LogicalDevice, s.swapchain, &imagesCount, images)); err != nil {
		return nil, fmt.Errorf("get swapchain images: %w", err)
	}
	s.ImageCount = int(imagesCount)
	return images, nil
}

func createImageView(device *device.Device, image vulkan.Image, format vulkan.Format, aspect vulkan.ImageAspectFlagBits) (vulkan.ImageView, error) {
	var view vulkan.ImageView
	if err := vulkan.Error(vulkan.CreateImageView(device.LogicalDevice, &vulkan.ImageViewCreateInfo{
		SType:    vulkan.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vulkan.ImageViewType2d,
		Format:   format,
		SubresourceRange: vulkan.ImageSubresourceRange{
			AspectMask: vulkan.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)); err != nil {
		return nil, err
	}
	return view, nil
}

func findDepthFormat(device *device.Device) (vulkan.Format, error) {
	return device.FindSupportedFormat([]vulkan.Format{
		vulkan.FormatD32Sfloat,
		vulkan.FormatD32SfloatS8Uint,
		vulkan.FormatD24UnormS8Uint,
	}, vulkan.ImageTilingOptimal, vulkan.FormatFeatureFlags(vulkan.FormatFeatureDepthStencilAttachmentBit))
}

func createRenderPass(device *device.Device, surfaceFormat vulkan.Format, depthFormat vulkan.Format) (vulkan.RenderPass, error) {
	var renderPass vulkan.RenderPass
	if err := vulkan.Error(vulkan.CreateRenderPass(device.LogicalDevice, &vulkan.RenderPassCreateInfo{
		SType:           vulkan.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 2,
		PAttachments: []vulkan.AttachmentDescription{
			{
				Format:         surfaceFormat,
				Samples:        vulkan.SampleCount1Bit,
				LoadOp:         vulkan.AttachmentLoadOpClear,
				StoreOp:        vulkan.AttachmentStoreOpStore,
				StencilLoadOp:  vulkan.AttachmentLoadOpDontCare,
				StencilStoreOp: vulkan.AttachmentStoreOpDontCare,
				InitialLayout:  vulkan.ImageLayoutUndefined,
				FinalLayout:    vulkan.ImageLayoutPresentSrc,
			},
			{
				Format:         depthFormat,
				Samples:        vulkan.SampleCount1Bit,
				LoadOp:         vulkan.AttachmentLoadOpClear,
				StoreOp:        vulkan.AttachmentStoreOpDontCare,
				StencilLoadOp:  vulkan.AttachmentLoadOpDontCare,
				StencilStoreOp: vulkan.AttachmentStoreOpDontCare,
				InitialLayout:  vulkan.ImageLayoutUndefined,
				FinalLayout:    vulkan.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		SubpassCount: 1,
		PSubpasses: []vulkan.SubpassDescription{
			{
				PipelineBindPoint:    vulkan.PipelineBindPointGraphics,
				ColorAttachmentCount: 1,
				PColorAttachments: []vulkan.AttachmentReference{
					{Attachment: 0, Layout: vulkan.ImageLayoutColorAttachmentOptimal},
				},
				PDepthStencilAttachment: &vulkan.AttachmentReference{
					Attachment: 1,
					Layout:     vulkan.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		DependencyCount: 1,
		PDependencies: []vulkan.SubpassDependency{
			{
				SrcSubpass:    vulkan.SubpassExternal,
				SrcStageMask:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit | vulkan.PipelineStageEarlyFragmentTestsBit),
				DstSubpass:    0,
				DstStageMask:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit | vulkan.PipelineStageEarlyFragmentTestsBit),
				DstAccessMask: vulkan.AccessFlags(vulkan.AccessColorAttachmentWriteBit | vulkan.AccessDepthStencilAttachmentWriteBit),
			},
		},
	}, nil, &renderPass)); err != nil {
		return nil, fmt.Errorf("create render pass: %w", err)
	}
	return renderPass, nil
}

type depthImage struct {
	image  vulkan.Image
	memory vulkan.DeviceMemory
	view   vulkan.ImageView
}

func (s *Swapchain) createDepthResources(depthFormat vulkan.Format, count int) error {
	s.depthResources = make([]depthImage, 0, count)
	for range count {
		var depth depthImage
		var err error
		depth.image, depth.memory, err = s.device.CreateImageWithInfo(vulkan.ImageCreateInfo{
			SType:     vulkan.StructureTypeImageCreateInfo,
			ImageType: vulkan.ImageType2d,
			Extent: vulkan.Extent3D{
				Width:  s.Extent.Width,
				Height: s.Extent.Height,
				Depth:  1,
			},
			MipLevels:     1,
			ArrayLayers:   1,
			Format:        depthFormat,
			Tiling:        vulkan.ImageTilingOptimal,
			InitialLayout: vulkan.ImageLayoutUndefined,
			Usage:         vulkan.ImageUsageFlags(vulkan.ImageUsageDepthStencilAttachmentBit),
			Samples:       vulkan.SampleCount1Bit,
			SharingMode:   vulkan.SharingModeExclusive,
		}, vulkan.MemoryPropertyFlags(vulkan.MemoryPropertyDeviceLocalBit))
		if err != nil {
			return fmt.Errorf("depth image: %w", err)
		}

		if depth.view, err = createImageView(s.device, depth.image, depthFormat, vulkan.ImageAspectDepthBit); err != nil {
			vulkan.DestroyImage(s.device.LogicalDevice, depth.image, nil)
			vulkan.FreeMemory(s.device.LogicalDevice, depth.memory, nil)
			return fmt.Errorf("depth image view: %w", err)
		}
		s.depthResources = append(s.depthResources, depth)
	}
	return nil
}

func (s *Swapchain) createFrameBuffers(renderPass vulkan.RenderPass) error {
	s.FrameBuffers = make([]vulkan.Framebuffer, 0, len(s.views))
	for i, view := range s.views {
		var framebuffer vulkan.Framebuffer
		if err := vulkan.Error(vulkan.CreateFramebuffer(s.device.LogicalDevice, &vulkan.FramebufferCreateInfo{
			SType:           vulkan.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: 2,
			PAttachments: []vulkan.ImageView{
				view,
				s.depthResources[i].view,
			},
			Width:  s.Extent.Width,
			Height: s.Extent.Height,
			Layers: 1,
		}, nil, &framebuffer)); err != nil {
			return fmt.Errorf("create framebuffer %d: %w", i, err)
		}
		s.FrameBuffers = append(s.FrameBuffers, framebuffer)
	}
	return nil
}

type syncObject struct {
	imageAvailable vulkan.Semaphore
	renderFinished vulkan.Semaphore
	inFlightFence  vulkan.Fence
}

func (s syncObject) destroy(device vulkan.Device) {
	vulkan.DestroySemaphore(device, s.imageAvailable, nil)
	vulkan.DestroySemaphore(device, s.renderFinished, nil)
	vulkan.DestroyFence(device, s.inFlightFence, nil)
}

func createSyncObjects(device *device.Device) ([]syncObject, error) {
	syncObjects := make([]syncObject, 0, MaxFramesInFlight)
	for range MaxFramesInFlight {
		var sync syncObject
		semaphoreInfo := &vulkan.SemaphoreCreateInfo{SType: vulkan.StructureTypeSemaphoreCreateInfo}

		if err := vulkan.Error(vulkan.CreateSemaphore(device.LogicalDevice, semaphoreInfo, nil, &sync.imageAvailable)); err != nil {
			return syncObjects, fmt.Errorf("create image semaphore: %w", err)
		}
		if err := vulkan.Error(vulkan.CreateSemaphore(device.LogicalDevice, semaphoreInfo, nil, &sync.renderFinished)); err != nil {
			vulkan.DestroySemaphore(device.LogicalDevice, sync.imageAvailable, nil)
			return syncObjects, fmt.Errorf("create render semaphore: %w", err)
		}
		if err := vulkan.Error(vulkan.CreateFence(device.LogicalDevice, &vulkan.FenceCreateInfo{
			SType: vulkan.StructureTypeFenceCreateInfo,
			Flags: vulkan.FenceCreateFlags(vulkan.FenceCreateSignaledBit),
		}, nil, &sync.inFlightFence)); err != nil {
			vulkan.DestroySemaphore(device.LogicalDevice, sync.imageAvailable, nil)
			vulkan.DestroySemaphore(device.LogicalDevice, sync.renderFinished, nil)
			return syncObjects, fmt.Errorf("create in-flight fence: %w", err)
		}
		syncObjects = append(syncObjects, sync)
	}
	return syncObjects, nil
}

func (sf *SwapchainFactory) newSwapchain(windowExtent vulkan.Extent2D, previous *Swapchain) (*Swapchain, error) {
	sp, err := sf.device.SwapchainSupport()
	if err != nil {
		return nil, err
	}
	s := &Swapchain{
		device:      sf.device,
		Extent:      chooseSwapExtent(windowExtent, sp.Caps),
		syncObjects: sf.syncObjects,
	}

	var oldSwapchain vulkan.Swapchain
	if previous != nil {
		oldSwapchain = previous.swapchain
	}
	images, err := s.createSwapchain(sp, sf.surfaceFormat, sf.presentMode, oldSwapchain)
	if err != nil {
		return nil, err
	}

	for i, image := range images {
		view, err := createImageView(sf.device, image, sf.surfaceFormat.Format, vulkan.ImageAspectColorBit)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("create image view %d: %w", i, err)
		}
		s.views = append(s.views, view)
	}
	if err := s.createDepthResources(sf.depthFormat, len(images)); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.createFrameBuffers(sf.RenderPass); err != nil {
		s.Close()
		return nil, err
	}
	s.imagesInFlight = make([]vulkan.Fence, len(images))
	return s, nil
}

// NextImage waits until frame slot currentFrame is free, then acquires the
// next presentable image.
func (s *Swapchain) NextImage(currentFrame int) (int, error) {
	sync := s.syncObjects[currentFrame]
	if err := vulkan.Error(vulkan.WaitForFences(s.device.LogicalDevice, 1, []vulkan.Fence{sync.inFlightFence}, vulkan.True, maxUint64)); err != nil {
		return 0, fmt.Errorf("wait for frame %d: %w", currentFrame, err)
	}

	var imageIndex uint32
	result := vulkan.AcquireNextImage(s.device.LogicalDevice, s.swapchain, maxUint64, sync.imageAvailable, vulkan.NullFence, &imageIndex)
	if result == vulkan.ErrorOutOfDate {
		return 0, ErrOutOfDate
	}
	if result != vulkan.Suboptimal {
		if err := vulkan.Error(result); err != nil {
			return 0, fmt.Errorf("acquire next image: %w", err)
		}
	}
	return int(imageIndex), nil
}

// SubmitCommandBuffer queues the frame's commands and presents the image.
// ErrOutOfDate is returned after a successful submit when presenting found
// the surface changed.
func (s *Swapchain) SubmitCommandBuffer(buffer vulkan.CommandBuffer, currentFrame, imageIndex int) error {
	sync := s.syncObjects[currentFrame]
	if s.imagesInFlight[imageIndex] != vulkan.NullFence {
		if err := vulkan.Error(vulkan.WaitForFences(s.device.LogicalDevice, 1, []vulkan.Fence{s.imagesInFlight[imageIndex]}, vulkan.True, maxUint64)); err != nil {
			return fmt.Errorf("wait for image %d: %w", imageIndex, err)
		}
	}
	s.imagesInFlight[imageIndex] = sync.inFlightFence

	if err := vulkan.Error(vulkan.ResetFences(s.device.LogicalDevice, 1, []vulkan.Fence{sync.inFlightFence})); err != nil {
		return fmt.Errorf("reset in-flight fence: %w", err)
	}

	if err := vulkan.Error(vulkan.QueueSubmit(s.device.Queue, 1, []vulkan.SubmitInfo{
		{
			SType:                vulkan.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   1,
			PWaitSemaphores:      []vulkan.Semaphore{sync.imageAvailable},
			PWaitDstStageMask:    []vulkan.PipelineStageFlags{vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit)},
			CommandBufferCount:   1,
			PCommandBuffers:      []vulkan.CommandBuffer{buffer},
			SignalSemaphoreCount: 1,
			PSignalSemaphores:    []vulkan.Semaphore{sync.renderFinished},
		},
	}, sync.inFlightFence)); err != nil {
		return fmt.Errorf("submit command buffer: %w", err)
	}

	result := vulkan.QueuePresent(s.device.Queue, &vulkan.PresentInfo{
		SType:              vulkan.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vulkan.Semaphore{sync.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vulkan.Swapchain{s.swapchain},
		PImageIndices:      []uint32{uint32(imageIndex)},
	})
	if result == vulkan.ErrorOutOfDate || result == vulkan.Suboptimal {
		return ErrOutOfDate
	}
	if err := vulkan.Error(result); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

func (s *Swapchain) Close() {
	for _, framebuffer := range s.FrameBuffers {
		vulkan.DestroyFramebuffer(s.device.LogicalDevice, framebuffer, nil)
	}
	for _, depth := range s.depthResources {
		vulkan.DestroyImageView(s.device.LogicalDevice, depth.view, nil)
		vulkan.DestroyImage(s.device.LogicalDevice, depth.image, nil)
		vulkan.FreeMemory(s.device.LogicalDevice, depth.memory, nil)
	}
	for _, view := range s.views {
		vulkan.DestroyImageView(s.device.LogicalDevice, view, nil)
	}
	if s.swapchain != vulkan.NullSwapchain {
		vulkan.DestroySwapchain(s.device.LogicalDevice, s.swapchain, nil)
	}
}
