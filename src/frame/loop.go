package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/WowVeryLogin/vulkan_scene/src/camcontroller"
	"github.com/WowVeryLogin/vulkan_scene/src/camcontroller/camera"
	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

// ErrFrameNotReady means no image could be acquired or presented this tick.
// The loop skips the tick and tries again on the next one.
var ErrFrameNotReady = errors.New("frame not ready")

var ErrTooManyLights = fmt.Errorf("scene has more than %d point lights", MaxLights)

// Frames hands out one command recorder per frame and presents the result.
type Frames interface {
	BeginFrame() (command.Recorder, error)
	BeginSwapChainRenderPass()
	EndSwapChainRenderPass()
	EndFrame() error
	FrameIndex() int
	AspectRatio() float32
	WaitIdle() error
}

type Window interface {
	camcontroller.KeyState
	ShouldClose() bool
	PollEvents()
}

// Uniforms owns one shared uniform block per frame in flight.
type Uniforms interface {
	Write(frameIndex int, ubo *GlobalUbo) error
	Set(frameIndex int) vulkan.DescriptorSet
}

// Lens holds the perspective parameters; FovY is in radians.
type Lens struct {
	FovY float32
	Near float32
	Far  float32
}

type Stats struct {
	Rendered uint64
	Skipped  uint64
}

type Params struct {
	Window     Window
	Frames     Frames
	Uniforms   Uniforms
	Controller *camcontroller.Controller
	// Viewer carries the camera pose and is moved by the controller.
	Viewer      *object.GameObject
	Scene       *object.Scene
	Lights      []*object.GameObject
	Lens        Lens
	Ambient     mgl32.Vec4
	Simulations []Simulation
	// Systems render in this order inside one render pass.
	Systems []RenderSystem
}

type Loop struct {
	Params

	camera *camera.Camera
	stats  Stats
	now    func() time.Time
}

func NewLoop(p Params) (*Loop, error) {
	switch {
	case p.Window == nil, p.Frames == nil, p.Uniforms == nil:
		return nil, errors.New("frame loop needs a window, frames and uniforms")
	case p.Controller == nil, p.Viewer == nil, p.Scene == nil:
		return nil, errors.New("frame loop needs a controller, viewer and scene")
	case len(p.Lights) > MaxLights:
		return nil, fmt.Errorf("%d lights: %w", len(p.Lights), ErrTooManyLights)
	}
	return &Loop{
		Params: p,
		camera: camera.New(),
		now:    time.Now,
	}, nil
}

func (l *Loop) Camera() *camera.Camera {
	return l.camera
}

func (l *Loop) Stats() Stats {
	return l.stats
}

// Run ticks until the window asks to close, then waits for the GPU to finish
// every submitted frame.
func (l *Loop) Run() error {
	var runErr error
	last := l.now()
	for !l.Window.ShouldClose() {
		now := l.now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if runErr = l.Tick(dt); runErr != nil {
			break
		}
	}

	if err := l.Frames.WaitIdle(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("wait for device idle: %w", err))
	}
	logger.Info("Frame loop stopped",
		zap.Uint64("rendered", l.stats.Rendered),
		zap.Uint64("skipped", l.stats.Skipped),
	)
	return runErr
}

// Tick runs one frame: input, camera, then rendering if a frame is available.
func (l *Loop) Tick(dt float32) error {
	l.Window.PollEvents()
	l.Controller.MoveInPlaneXZ(l.Window, dt, l.Viewer)

	l.camera.SetViewYXZ(l.Viewer.Transform.Translation, l.Viewer.Transform.Rotation)
	if err := l.camera.SetPerspectiveProjection(l.Lens.FovY, l.Frames.AspectRatio(), l.Lens.Near, l.Lens.Far); err != nil {
		return fmt.Errorf("update projection: %w", err)
	}

	cmd, err := l.Frames.BeginFrame()
	if errors.Is(err, ErrFrameNotReady) {
		l.stats.Skipped++
		logger.Debug("Skipping frame", zap.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	idx := l.Frames.FrameIndex()
	ubo := PackGlobalUbo(l.camera, l.Ambient, l.Lights)
	if err := l.Uniforms.Write(idx, &ubo); err != nil {
		return fmt.Errorf("write uniforms for frame %d: %w", idx, err)
	}

	info := &FrameInfo{
		FrameIndex:          idx,
		FrameTime:           dt,
		Commands:            cmd,
		Camera:              l.camera,
		GlobalDescriptorSet: l.Uniforms.Set(idx),
		Objects:             l.Scene,
		Lights:              l.Lights,
	}
	for _, sim := range l.Simulations {
		sim.Update(info)
	}

	l.Frames.BeginSwapChainRenderPass()
	for _, system := range l.Systems {
		system.Render(info)
	}
	l.Frames.EndSwapChainRenderPass()

	err = l.Frames.EndFrame()
	if errors.Is(err, ErrFrameNotReady) {
		logger.Debug("Frame submitted but not presented", zap.Error(err))
	} else if err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	l.stats.Rendered++
	return nil
}
