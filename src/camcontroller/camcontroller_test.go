package camcontroller

import (
	"math"
	"testing"

	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type heldKeys map[glfw.Key]bool

func (h heldKeys) Pressed(key glfw.Key) bool {
	return h[key]
}

func newViewer() *object.GameObject {
	var ids object.IDAllocator
	return ids.New()
}

func TestForwardMovesAlongWorldForward(t *testing.T) {
	viewer := newViewer()
	c := New(3, 1.5)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyW: true}, 1.0, viewer)

	assert.Equal(t, mgl32.Vec3{0, 0, 3}, viewer.Transform.Translation)
	assert.Equal(t, mgl32.Vec3{}, viewer.Transform.Rotation)
}

func TestZeroTimeIsNoOp(t *testing.T) {
	viewer := newViewer()
	viewer.Transform.Translation = mgl32.Vec3{1, 2, 3}
	viewer.Transform.Rotation = mgl32.Vec3{0.2, 0.4, 0}
	c := New(3, 1.5)

	all := heldKeys{}
	for _, key := range c.Keys {
		all[key] = true
	}
	all[glfw.KeyA] = false
	all[glfw.KeyLeft] = false
	c.MoveInPlaneXZ(all, 0, viewer)

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, viewer.Transform.Translation)
	assert.Equal(t, mgl32.Vec3{0.2, 0.4, 0}, viewer.Transform.Rotation)
}

func TestMovementFollowsYaw(t *testing.T) {
	viewer := newViewer()
	viewer.Transform.Rotation = mgl32.Vec3{0, math.Pi / 2, 0}
	c := New(2, 1.5)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyW: true}, 0.5, viewer)

	assert.InDelta(t, 1, viewer.Transform.Translation.X(), 1e-6)
	assert.InDelta(t, 0, viewer.Transform.Translation.Y(), 1e-6)
	assert.InDelta(t, 0, viewer.Transform.Translation.Z(), 1e-6)
}

func TestPitchDoesNotTiltMovement(t *testing.T) {
	viewer := newViewer()
	viewer.Transform.Rotation = mgl32.Vec3{1.2, 0, 0}
	c := New(3, 1.5)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyW: true}, 1, viewer)

	assert.InDelta(t, 0, viewer.Transform.Translation.Y(), 1e-6)
	assert.InDelta(t, 3, viewer.Transform.Translation.Z(), 1e-6)
}

func TestDiagonalMovementIsNormalised(t *testing.T) {
	viewer := newViewer()
	c := New(3, 1.5)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyW: true, glfw.KeyD: true, glfw.KeyE: true}, 1, viewer)

	assert.InDelta(t, 3, viewer.Transform.Translation.Len(), 1e-5)
	assert.Less(t, viewer.Transform.Translation.Y(), float32(0), "up is -Y")
}

func TestOpposingKeysCancel(t *testing.T) {
	viewer := newViewer()
	c := New(3, 1.5)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyW: true, glfw.KeyS: true, glfw.KeyLeft: true, glfw.KeyRight: true}, 1, viewer)

	assert.Equal(t, mgl32.Vec3{}, viewer.Transform.Translation)
	assert.Equal(t, mgl32.Vec3{}, viewer.Transform.Rotation)
}

func TestPitchIsClamped(t *testing.T) {
	viewer := newViewer()
	c := New(3, 1.5)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyUp: true}, 10, viewer)
	assert.Equal(t, float32(MaxPitch), viewer.Transform.Rotation.X())

	c.MoveInPlaneXZ(heldKeys{glfw.KeyDown: true}, 10, viewer)
	assert.Equal(t, float32(-MaxPitch), viewer.Transform.Rotation.X())
}

func TestYawWraps(t *testing.T) {
	viewer := newViewer()
	c := New(3, 1)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyLeft: true}, 0.5, viewer)

	assert.InDelta(t, 2*math.Pi-0.5, viewer.Transform.Rotation.Y(), 1e-5)
}

func TestUnmappedActionsAreIgnored(t *testing.T) {
	viewer := newViewer()
	c := New(3, 1.5)
	delete(c.Keys, MoveForward)

	c.MoveInPlaneXZ(heldKeys{glfw.KeyW: true}, 1, viewer)

	assert.Equal(t, mgl32.Vec3{}, viewer.Transform.Translation)
}
