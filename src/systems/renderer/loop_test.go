package renderer

import (
	"testing"

	"github.com/WowVeryLogin/vulkan_scene/src/camcontroller"
	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command/commandtest"
	"github.com/WowVeryLogin/vulkan_scene/src/systems/animation"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingWindow struct {
	ticksLeft int
}

func (w *closingWindow) ShouldClose() bool {
	if w.ticksLeft == 0 {
		return true
	}
	w.ticksLeft--
	return false
}

func (w *closingWindow) PollEvents() {}
func (w *closingWindow) Pressed(glfw.Key) bool { return false }

type recordingFrames struct {
	recorders []*commandtest.Recorder
}

func (f *recordingFrames) BeginFrame() (command.Recorder, error) {
	rec := &commandtest.Recorder{}
	f.recorders = append(f.recorders, rec)
	return rec, nil
}

func (f *recordingFrames) BeginSwapChainRenderPass() {}
func (f *recordingFrames) EndSwapChainRenderPass() {}
func (f *recordingFrames) EndFrame() error { return nil }
func (f *recordingFrames) FrameIndex() int { return (len(f.recorders) - 1) % 2 }
func (f *recordingFrames) AspectRatio() float32 { return 1.5 }
func (f *recordingFrames) WaitIdle() error { return nil }

type discardUniforms struct{}

func (discardUniforms) Write(int, *frame.GlobalUbo) error { return nil }
func (discardUniforms) Set(int) vulkan.DescriptorSet { return nil }

// rotationLog records the first object's yaw as seen by the render systems.
type rotationLog struct {
	obj  *object.GameObject
	yaws []float32
}

func (l *rotationLog) Render(*frame.FrameInfo) {
	l.yaws = append(l.yaws, l.obj.Transform.Rotation.Y())
}

func TestLoopDrawsSpinningScene(t *testing.T) {
	scene := object.NewScene()
	for _, x := range []float32{-0.75, 0.75} {
		obj := scene.NewObject()
		obj.Mesh = triangle{}
		obj.Color = mgl32.Vec3{0.8, 0.3, 0.1}
		obj.Transform.Translation = mgl32.Vec3{x, 0, 2.5}
		obj.Transform.Scale = mgl32.Vec3{0.5, 0.5, 0.5}
		require.NoError(t, scene.Add(obj))
	}
	first := scene.Objects()[0]

	frames := &recordingFrames{}
	yaws := &rotationLog{obj: first}
	loop, err := frame.NewLoop(frame.Params{
		Window:      &closingWindow{ticksLeft: 3},
		Frames:      frames,
		Uniforms:    discardUniforms{},
		Controller:  camcontroller.New(3, 1.5),
		Viewer:      scene.NewObject(),
		Scene:       scene,
		Lens:        frame.Lens{FovY: mgl32.DegToRad(50), Near: 0.1, Far: 100},
		Simulations: []frame.Simulation{animation.NewIdleRotation(animation.DefaultSpinIncrement)},
		Systems:     []frame.RenderSystem{&Renderer{path: uniformPath{}}, yaws},
	})
	require.NoError(t, err)

	require.NoError(t, loop.Run())

	require.Len(t, frames.recorders, 3)
	for i, rec := range frames.recorders {
		assert.Equal(t, 2, rec.Draws(), "frame %d", i)
		assert.Len(t, rec.Filter(commandtest.OpPushConstants), 2, "frame %d", i)
	}
	assert.Equal(t, frame.Stats{Rendered: 3}, loop.Stats())

	require.Len(t, yaws.yaws, 3)
	for i := 1; i < len(yaws.yaws); i++ {
		assert.InDelta(t, animation.DefaultSpinIncrement, yaws.yaws[i]-yaws.yaws[i-1], 1e-7)
	}
	assert.InDelta(t, 3*animation.DefaultSpinIncrement, yaws.yaws[2], 1e-7)

	pushes := frames.recorders[2].Filter(commandtest.OpPushConstants)
	got := commandtest.PushedAs[ObjectPushData](pushes[0])
	assert.True(t, first.Transform.ModelMatrix().ApproxEqual(got.ModelMatrix))
}
