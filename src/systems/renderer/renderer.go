package renderer

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/WowVeryLogin/vulkan_scene/src/object/model"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/device"
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/goki/vulkan"
	"go.uber.org/zap"
)

// DataPath selects how camera and object data reach the shaders.
type DataPath string

const (
	// DataPathUniform binds the per-frame global block once and pushes only
	// per-object data.
	DataPathUniform DataPath = "uniform"
	// DataPathPushConstant pushes the full clip-space transform per object
	// and binds no descriptor sets.
	DataPathPushConstant DataPath = "push"
)

const pushStages = vulkan.ShaderStageFlags(vulkan.ShaderStageVertexBit | vulkan.ShaderStageFragmentBit)

// ObjectPushData is the per-draw block of the uniform path. The normal
// matrix is a mat3 with std430 column padding.
type ObjectPushData struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix [3]mgl32.Vec4
	Color        mgl32.Vec3
	ObjectID     uint32
}

// PushData is the per-draw block of the push path.
type PushData struct {
	Transform mgl32.Mat4
	Color     mgl32.Vec3
	_         float32
}

func NewObjectPushData(obj *object.GameObject) ObjectPushData {
	normal := obj.Transform.NormalMatrix()
	return ObjectPushData{
		ModelMatrix: obj.Transform.ModelMatrix(),
		NormalMatrix: [3]mgl32.Vec4{
			normal.Col(0).Vec4(0),
			normal.Col(1).Vec4(0),
			normal.Col(2).Vec4(0),
		},
		Color:    obj.Color,
		ObjectID: uint32(obj.ID()),
	}
}

type dataPath interface {
	shaders() (vert, frag string)
	pushSize() uint32
	setLayouts(global vulkan.DescriptorSetLayout) []vulkan.DescriptorSetLayout
	begin(r *Renderer, f *frame.FrameInfo)
	push(r *Renderer, f *frame.FrameInfo, obj *object.GameObject)
}

type uniformPath struct{}

func (uniformPath) shaders() (string, string) {
	return "simple_shader.vert.spv", "simple_shader.frag.spv"
}

func (uniformPath) pushSize() uint32 {
	return uint32(unsafe.Sizeof(ObjectPushData{}))
}

func (uniformPath) setLayouts(global vulkan.DescriptorSetLayout) []vulkan.DescriptorSetLayout {
	return []vulkan.DescriptorSetLayout{global}
}

func (uniformPath) begin(r *Renderer, f *frame.FrameInfo) {
	f.Commands.BindDescriptorSets(r.layout, f.GlobalDescriptorSet)
}

func (p uniformPath) push(r *Renderer, f *frame.FrameInfo, obj *object.GameObject) {
	data := NewObjectPushData(obj)
	f.Commands.PushConstants(r.layout, pushStages, p.pushSize(), unsafe.Pointer(&data))
}

type pushPath struct {
	viewProjection mgl32.Mat4
}

func (*pushPath) shaders() (string, string) {
	return "push_shader.vert.spv", "push_shader.frag.spv"
}

func (*pushPath) pushSize() uint32 {
	return uint32(unsafe.Sizeof(PushData{}))
}

func (*pushPath) setLayouts(vulkan.DescriptorSetLayout) []vulkan.DescriptorSetLayout {
	return nil
}

func (p *pushPath) begin(_ *Renderer, f *frame.FrameInfo) {
	p.viewProjection = f.Camera.Projection().Mul4(f.Camera.View())
}

func (p *pushPath) push(r *Renderer, f *frame.FrameInfo, obj *object.GameObject) {
	data := PushData{
		Transform: p.viewProjection.Mul4(obj.Transform.ModelMatrix()),
		Color:     obj.Color,
	}
	f.Commands.PushConstants(r.layout, pushStages, p.pushSize(), unsafe.Pointer(&data))
}

func newDataPath(path DataPath) (dataPath, error) {
	switch path {
	case DataPathUniform, "":
		return uniformPath{}, nil
	case DataPathPushConstant:
		return &pushPath{}, nil
	default:
		return nil, fmt.Errorf("unknown data path %q", path)
	}
}

// Renderer draws every object that has a mesh, in scene order.
type Renderer struct {
	pipeline vulkan.Pipeline
	layout   vulkan.PipelineLayout
	path     dataPath

	owned *pipeline.Pipeline
}

func New(
	dev *device.Device,
	renderPass vulkan.RenderPass,
	globalLayout vulkan.DescriptorSetLayout,
	path DataPath,
	shaderDir string,
) (*Renderer, error) {
	dp, err := newDataPath(path)
	if err != nil {
		return nil, err
	}
	vert, frag := dp.shaders()

	p, err := pipeline.New(dev, pipeline.PipelineConfig{
		RenderPass: renderPass,
		VertShader: filepath.Join(shaderDir, vert),
		FragShader: filepath.Join(shaderDir, frag),
		SetLayouts: dp.setLayouts(globalLayout),
		PushConstants: []vulkan.PushConstantRange{
			{
				StageFlags: pushStages,
				Offset:     0,
				Size:       dp.pushSize(),
			},
		},
		Bindings:   model.VertexBindingDescription,
		Attributes: model.VertexAttributeDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh renderer: %w", err)
	}

	logger.Info("Mesh renderer ready", zap.String("dataPath", string(path)))
	return &Renderer{
		pipeline: p.Pipeline,
		layout:   p.Layout,
		path:     dp,
		owned:    p,
	}, nil
}

func (r *Renderer) Render(f *frame.FrameInfo) {
	cmd := f.Commands
	cmd.BindPipeline(r.pipeline)
	r.path.begin(r, f)

	f.Objects.Each(func(obj *object.GameObject) {
		if obj.Mesh == nil {
			return
		}
		r.path.push(r, f, obj)
		obj.Mesh.Bind(cmd)
		obj.Mesh.Draw(cmd)
	})
}

func (r *Renderer) Close() {
	if r.owned != nil {
		r.owned.Close()
	}
}
