package window

import (
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/config"
	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

type Window struct {
	Window      *glfw.Window
	Extent      vulkan.Extent2D
	SizeChanged bool
}

func New(cfg config.WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	width, height := window.GetFramebufferSize()
	w := &Window{
		Window: window,
		Extent: vulkan.Extent2D{
			Width:  uint32(width),
			Height: uint32(height),
		},
	}

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width int, height int) {
		w.Extent.Height = uint32(height)
		w.Extent.Width = uint32(width)
		w.SizeChanged = true
	})
	window.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})

	logger.Info("Window created",
		zap.String("title", cfg.Title),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return w, nil
}

func (w *Window) Close() {
	w.Window.Destroy()
	glfw.Terminate()
}

func (w *Window) ShouldClose() bool {
	return w.Window.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitWhileMinimised blocks until the framebuffer has a non-zero size again.
func (w *Window) WaitWhileMinimised() {
	for w.Extent.Width == 0 || w.Extent.Height == 0 {
		glfw.WaitEvents()
	}
}

func (w *Window) Pressed(key glfw.Key) bool {
	return w.Window.GetKey(key) == glfw.Press
}

func (w *Window) CreateSurface(instance vulkan.Instance) (vulkan.Surface, error) {
	surface, err := w.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return nil, fmt.Errorf("create window surface: %w", err)
	}
	return vulkan.SurfaceFromPointer(surface), nil
}

func (w *Window) GetRequiredInstanceExtensions() []string {
	var result []string
	for _, e := range w.Window.GetRequiredInstanceExtensions() {
		result = append(result, e+"\x00")
	}
	return result
}
