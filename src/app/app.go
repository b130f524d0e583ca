package app

import (
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/camcontroller"
	"github.com/WowVeryLogin/vulkan_scene/src/config"
	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/object/model"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/renderpass"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/swapchain"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/uniform"
	"github.com/WowVeryLogin/vulkan_scene/src/systems/animation"
	"github.com/WowVeryLogin/vulkan_scene/src/systems/renderer"
	pointlights "github.com/WowVeryLogin/vulkan_scene/src/systems/renderer/point_lights"
	"github.com/WowVeryLogin/vulkan_scene/src/window"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

type App struct {
	window     *window.Window
	device     *device.Device
	renderPass *renderpass.RenderPass
	uniforms   *uniform.PerFrame[frame.GlobalUbo]

	meshes *model.Library
	scene  *object.Scene

	gameObjectsRenderer *renderer.Renderer
	pointLightsRenderer *pointlights.PointLightsRenderer

	loop *frame.Loop
}

func New(cfg *config.Config) (*App, error) {
	a := &App{}
	if err := a.init(cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(cfg *config.Config) error {
	var err error
	if a.window, err = window.New(cfg.Window); err != nil {
		return err
	}

	vulkan.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vulkan.Init(); err != nil {
		return fmt.Errorf("initialize vulkan: %w", err)
	}

	if a.device, err = device.New(a.window, cfg.Render.Validation); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	if a.renderPass, err = renderpass.New(a.device, a.window, cfg.Render.ClearColor); err != nil {
		return fmt.Errorf("render pass: %w", err)
	}
	if a.uniforms, err = uniform.NewPerFrame[frame.GlobalUbo](a.device, swapchain.MaxFramesInFlight); err != nil {
		return fmt.Errorf("global uniforms: %w", err)
	}

	if a.gameObjectsRenderer, err = renderer.New(
		a.device,
		a.renderPass.RenderPass,
		a.uniforms.Layout(),
		renderer.DataPath(cfg.Render.DataPath),
		cfg.Render.ShaderDir,
	); err != nil {
		return err
	}
	if a.pointLightsRenderer, err = pointlights.New(
		a.device,
		a.renderPass.RenderPass,
		a.uniforms.Layout(),
		cfg.Render.ShaderDir,
	); err != nil {
		return err
	}

	a.meshes = model.NewLibrary(a.uploadMesh)
	scene, lights, err := BuildScene(cfg.Scene, a.meshes)
	if err != nil {
		return err
	}
	a.scene = scene

	a.loop, err = frame.NewLoop(frame.Params{
		Window:     a.window,
		Frames:     a.renderPass,
		Uniforms:   a.uniforms,
		Controller: camcontroller.New(cfg.Camera.MoveSpeed, cfg.Camera.LookSpeed),
		Viewer:     NewViewer(scene, cfg.Camera),
		Scene:      scene,
		Lights:     lights,
		Lens: frame.Lens{
			FovY: mgl32.DegToRad(cfg.Camera.FovY),
			Near: cfg.Camera.Near,
			Far:  cfg.Camera.Far,
		},
		Ambient: mgl32.Vec4(cfg.Scene.Ambient),
		Simulations: []frame.Simulation{
			animation.NewIdleRotation(cfg.Scene.SpinIncrement),
		},
		Systems: []frame.RenderSystem{
			a.gameObjectsRenderer,
			a.pointLightsRenderer,
		},
	})
	if err != nil {
		return err
	}

	logger.Info("Scene ready",
		zap.Int("objects", scene.Len()),
		zap.Int("meshes", a.meshes.Len()),
		zap.Int("lights", len(lights)),
		zap.String("dataPath", cfg.Render.DataPath),
	)
	return nil
}

func (a *App) uploadMesh(source string) (model.Resource, error) {
	builder, err := model.Load(source)
	if err != nil {
		return nil, err
	}
	m, err := model.New(a.device, builder)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (a *App) Run() error {
	return a.loop.Run()
}

func (a *App) Close() {
	if a.scene != nil {
		a.scene.Close()
	}
	if a.meshes != nil {
		a.meshes.Close()
	}
	if a.pointLightsRenderer != nil {
		a.pointLightsRenderer.Close()
	}
	if a.gameObjectsRenderer != nil {
		a.gameObjectsRenderer.Close()
	}
	if a.uniforms != nil {
		a.uniforms.Close()
	}
	if a.renderPass != nil {
		a.renderPass.Close()
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
