// Package renderpass drives the per-frame command buffers against the
// swapchain and rebuilds the swapchain when the window changes.
package renderpass

import (
	"errors"
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/swapchain"
	"github.com/WowVeryLogin/vulkan_scene/src/window"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

type RenderPass struct {
	RenderPass     vulkan.RenderPass
	CommandBuffers []vulkan.CommandBuffer
	ClearColor     [4]float32

	device           *device.Device
	window           *window.Window
	swapchainFactory *swapchain.SwapchainFactory
	imageIdx         int
	frameIdx         int
}

func createCommandBuffers(device *device.Device) ([]vulkan.CommandBuffer, error) {
	commandBuffers := make([]vulkan.CommandBuffer, swapchain.MaxFramesInFlight)
	if err := vulkan.Error(vulkan.AllocateCommandBuffers(device.LogicalDevice, &vulkan.CommandBufferAllocateInfo{
		SType:              vulkan.StructureTypeCommandBufferAllocateInfo,
		Level:              vulkan.CommandBufferLevelPrimary,
		CommandPool:        device.Pool,
		CommandBufferCount: uint32(len(commandBuffers)),
	}, commandBuffers)); err != nil {
		return nil, fmt.Errorf("allocate command buffers: %w", err)
	}
	return commandBuffers, nil
}

func New(device *device.Device, window *window.Window, clearColor [4]float32) (*RenderPass, error) {
	swapchainFactory, err := swapchain.New(device, window.Extent)
	if err != nil {
		return nil, fmt.Errorf("swapchain: %w", err)
	}

	commandBuffers, err := createCommandBuffers(device)
	if err != nil {
		swapchainFactory.Close()
		return nil, err
	}
	return &RenderPass{
		RenderPass:       swapchainFactory.RenderPass,
		CommandBuffers:   commandBuffers,
		ClearColor:       clearColor,
		device:           device,
		window:           window,
		swapchainFactory: swapchainFactory,
	}, nil
}

func (r *RenderPass) FrameIndex() int {
	return r.frameIdx
}

func (r *RenderPass) AspectRatio() float32 {
	extent := r.swapchainFactory.Swapchain.Extent
	if extent.Height == 0 {
		return 1.0
	}
	return float32(extent.Width) / float32(extent.Height)
}

func (r *RenderPass) WaitIdle() error {
	return r.device.WaitIdle()
}

func (r *RenderPass) recreateSwapchain() error {
	r.window.WaitWhileMinimised()
	if err := r.device.WaitIdle(); err != nil {
		return err
	}
	r.window.SizeChanged = false
	if err := r.swapchainFactory.UpdateSwapchain(r.window.Extent); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	return nil
}

// BeginFrame acquires an image and starts recording. A rebuilt swapchain is
// reported as frame.ErrFrameNotReady.
func (r *RenderPass) BeginFrame() (command.Recorder, error) {
	var err error
	r.imageIdx, err = r.swapchainFactory.Swapchain.NextImage(r.frameIdx)
	if errors.Is(err, swapchain.ErrOutOfDate) {
		logger.Debug("Swapchain out of date on acquire")
		if err := r.recreateSwapchain(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("acquire: %w", frame.ErrFrameNotReady)
	}
	if err != nil {
		return nil, err
	}

	cb := r.CommandBuffers[r.frameIdx]
	if err := vulkan.Error(vulkan.BeginCommandBuffer(cb, &vulkan.CommandBufferBeginInfo{
		SType: vulkan.StructureTypeCommandBufferBeginInfo,
	})); err != nil {
		return nil, fmt.Errorf("begin command buffer: %w", err)
	}
	return command.Buffer{CommandBuffer: cb}, nil
}

func (r *RenderPass) BeginSwapChainRenderPass() {
	cb := r.CommandBuffers[r.frameIdx]
	extent := r.swapchainFactory.Swapchain.Extent
	vulkan.CmdBeginRenderPass(cb, &vulkan.RenderPassBeginInfo{
		SType:       vulkan.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.swapchainFactory.RenderPass,
		Framebuffer: r.swapchainFactory.Swapchain.FrameBuffers[r.imageIdx],
		RenderArea: vulkan.Rect2D{
			Offset: vulkan.Offset2D{},
			Extent: extent,
		},
		ClearValueCount: 2,
		PClearValues: []vulkan.ClearValue{
			vulkan.NewClearValue(r.ClearColor[:]),
			vulkan.NewClearDepthStencil(1.0, 0),
		},
	}, vulkan.SubpassContentsInline)

	vulkan.CmdSetViewport(cb, 0, 1, []vulkan.Viewport{
		{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
	})
	vulkan.CmdSetScissor(cb, 0, 1, []vulkan.Rect2D{
		{
			Offset: vulkan.Offset2D{},
			Extent: extent,
		},
	})
}

func (r *RenderPass) EndSwapChainRenderPass() {
	vulkan.CmdEndRenderPass(r.CommandBuffers[r.frameIdx])
}

// EndFrame submits and presents. The frame slot advances even when the
// present reports a stale swapchain, since the submit itself went through.
func (r *RenderPass) EndFrame() error {
	cb := r.CommandBuffers[r.frameIdx]
	if err := vulkan.Error(vulkan.EndCommandBuffer(cb)); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}
	err := r.swapchainFactory.Swapchain.SubmitCommandBuffer(cb, r.frameIdx, r.imageIdx)
	if err != nil && !errors.Is(err, swapchain.ErrOutOfDate) {
		return err
	}
	r.frameIdx = (r.frameIdx + 1) % swapchain.MaxFramesInFlight

	if err != nil || r.window.SizeChanged {
		logger.Debug("Swapchain stale after present",
			zap.Bool("resized", r.window.SizeChanged),
			zap.Uint32("width", r.window.Extent.Width),
			zap.Uint32("height", r.window.Extent.Height),
		)
		if err := r.recreateSwapchain(); err != nil {
			return err
		}
		return fmt.Errorf("present: %w", frame.ErrFrameNotReady)
	}
	return nil
}

func (r *RenderPass) Close() {
	vulkan.FreeCommandBuffers(r.device.LogicalDevice, r.device.Pool, uint32(len(r.CommandBuffers)), r.CommandBuffers)
	r.swapchainFactory.Close()
}
