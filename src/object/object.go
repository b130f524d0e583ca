package object

import (
	"github.com/WowVeryLogin/vulkan_scene/src/runtime/command"
	"github.com/go-gl/mathgl/mgl32"
)

type ID uint32

// Mesh is immutable geometry shared between objects.
type Mesh interface {
	Bind(cmd command.Recorder)
	Draw(cmd command.Recorder)
}

// Releaser is implemented by meshes whose GPU memory is reference counted.
type Releaser interface {
	Release()
}

// PointLight marks an object as a light source. Its position is the
// object's translation and its colour the object's colour.
type PointLight struct {
	Intensity float32
	Radius    float32
}

type GameObject struct {
	id         ID
	Mesh       Mesh
	Color      mgl32.Vec3
	Transform  Transform
	PointLight *PointLight
}

func (g *GameObject) ID() ID {
	return g.id
}

// IDAllocator hands out process-unique, increasing identifiers. Ids are never
// reused; a fresh allocator only exists at start-up.
type IDAllocator struct {
	next ID
}

func (a *IDAllocator) Next() ID {
	id := a.next
	a.next++
	return id
}

// New creates an object with a fresh id and unit scale.
func (a *IDAllocator) New() *GameObject {
	return &GameObject{
		id:        a.Next(),
		Transform: NewTransform(),
	}
}

// NewPointLight creates a mesh-less light object.
func (a *IDAllocator) NewPointLight(position, color mgl32.Vec3, intensity, radius float32) *GameObject {
	obj := a.New()
	obj.Color = color
	obj.Transform.Translation = position
	obj.PointLight = &PointLight{Intensity: intensity, Radius: radius}
	return obj
}
