package renderer

import (
	"testing"
	"unsafe"

	"github.com/WowVeryLogin/vulkan_scene/src/camcontroller/camera"
	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command/commandtest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type triangle struct{}

func (triangle) Bind(cmd command.Recorder) { cmd.BindVertexBuffers() }
func (triangle) Draw(cmd command.Recorder) { cmd.Draw(3, 1) }

func sceneWithMeshless(t *testing.T) (*object.Scene, []*object.GameObject) {
	scene := object.NewScene()
	var drawn []*object.GameObject
	for i := range 3 {
		obj := scene.NewObject()
		obj.Color = mgl32.Vec3{float32(i), 0.5, 1}
		obj.Transform.Translation = mgl32.Vec3{float32(i), 0, 2}
		obj.Transform.Rotation = mgl32.Vec3{0, float32(i) * 0.3, 0}
		if i != 1 {
			obj.Mesh = triangle{}
			drawn = append(drawn, obj)
		}
		require.NoError(t, scene.Add(obj))
	}
	return scene, drawn
}

func frameFor(t *testing.T, scene *object.Scene) (*frame.FrameInfo, *commandtest.Recorder) {
	cam := camera.New()
	require.NoError(t, cam.SetPerspectiveProjection(mgl32.DegToRad(50), 16.0/9.0, 0.1, 100))
	cam.SetViewYXZ(mgl32.Vec3{0, -1, -3}, mgl32.Vec3{0.1, 0.2, 0})
	rec := &commandtest.Recorder{}
	return &frame.FrameInfo{
		Commands: rec,
		Camera:   cam,
		Objects:  scene,
	}, rec
}

func TestPushBlockSizes(t *testing.T) {
	assert.Equal(t, uintptr(128), unsafe.Sizeof(ObjectPushData{}))
	assert.Equal(t, uintptr(80), unsafe.Sizeof(PushData{}))
}

func TestUniformPathDrawsMeshObjectsInOrder(t *testing.T) {
	scene, drawn := sceneWithMeshless(t)
	f, rec := frameFor(t, scene)
	r := &Renderer{path: uniformPath{}}

	r.Render(f)

	assert.Equal(t, []string{
		commandtest.OpBindPipeline,
		commandtest.OpBindDescriptorSets,
		commandtest.OpPushConstants, commandtest.OpBindVertexBuffers, commandtest.OpDraw,
		commandtest.OpPushConstants, commandtest.OpBindVertexBuffers, commandtest.OpDraw,
	}, rec.Ops())
	assert.Equal(t, 1, rec.Filter(commandtest.OpBindDescriptorSets)[0].Sets)

	pushes := rec.Filter(commandtest.OpPushConstants)
	require.Len(t, pushes, len(drawn))
	for i, obj := range drawn {
		assert.Equal(t, pushStages, pushes[i].Stages)
		got := commandtest.PushedAs[ObjectPushData](pushes[i])
		assert.Equal(t, uint32(obj.ID()), got.ObjectID)
		assert.Equal(t, obj.Color, got.Color)
		assert.True(t, obj.Transform.ModelMatrix().ApproxEqual(got.ModelMatrix))

		normal := obj.Transform.NormalMatrix()
		for c := range 3 {
			assert.True(t, normal.Col(c).ApproxEqual(got.NormalMatrix[c].Vec3()))
			assert.Equal(t, float32(0), got.NormalMatrix[c].W())
		}
	}
}

func TestPushPathSendsClipTransform(t *testing.T) {
	scene, drawn := sceneWithMeshless(t)
	f, rec := frameFor(t, scene)
	r := &Renderer{path: &pushPath{}}

	r.Render(f)

	assert.Empty(t, rec.Filter(commandtest.OpBindDescriptorSets))
	pushes := rec.Filter(commandtest.OpPushConstants)
	require.Len(t, pushes, len(drawn))

	viewProjection := f.Camera.Projection().Mul4(f.Camera.View())
	for i, obj := range drawn {
		got := commandtest.PushedAs[PushData](pushes[i])
		want := viewProjection.Mul4(obj.Transform.ModelMatrix())
		assert.True(t, want.ApproxEqualThreshold(got.Transform, 1e-5))
		assert.Equal(t, obj.Color, got.Color)
	}
}

func TestEmptySceneOnlyBindsPipeline(t *testing.T) {
	f, rec := frameFor(t, object.NewScene())
	r := &Renderer{path: uniformPath{}}

	r.Render(f)

	assert.Equal(t, 0, rec.Draws())
	assert.Empty(t, rec.Filter(commandtest.OpPushConstants))
}

func TestNewDataPath(t *testing.T) {
	dp, err := newDataPath(DataPathUniform)
	require.NoError(t, err)
	assert.Equal(t, uint32(128), dp.pushSize())

	dp, err = newDataPath(DataPathPushConstant)
	require.NoError(t, err)
	assert.Equal(t, uint32(80), dp.pushSize())
	assert.Nil(t, dp.setLayouts(nil))

	_, err = newDataPath("ssbo")
	assert.Error(t, err)
}
