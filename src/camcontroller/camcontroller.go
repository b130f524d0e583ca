package camcontroller

import (
	"math"

	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/go-gl/glfw/v3.3/glfw"
	"gonum.org/v1/gonum/mat"
)

// Action is a logical input bound to a key.
type Action int

const (
	MoveForward Action = iota
	MoveBackward
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	LookUp
	LookDown
	LookLeft
	LookRight
)

// MaxPitch keeps the rig just short of looking straight up or down.
const MaxPitch = 1.5

const epsilon = 1e-9

type KeyMapping map[Action]glfw.Key

func DefaultKeyMapping() KeyMapping {
	return KeyMapping{
		MoveForward:  glfw.KeyW,
		MoveBackward: glfw.KeyS,
		MoveLeft:     glfw.KeyA,
		MoveRight:    glfw.KeyD,
		MoveUp:       glfw.KeyE,
		MoveDown:     glfw.KeyQ,
		LookUp:       glfw.KeyUp,
		LookDown:     glfw.KeyDown,
		LookLeft:     glfw.KeyLeft,
		LookRight:    glfw.KeyRight,
	}
}

// KeyState reports whether a key is currently held.
type KeyState interface {
	Pressed(key glfw.Key) bool
}

type Controller struct {
	Keys      KeyMapping
	MoveSpeed float32
	LookSpeed float32
}

func New(moveSpeed, lookSpeed float32) *Controller {
	return &Controller{
		Keys:      DefaultKeyMapping(),
		MoveSpeed: moveSpeed,
		LookSpeed: lookSpeed,
	}
}

// MoveInPlaneXZ turns and moves obj from the held keys. Movement follows yaw
// only, so walking stays horizontal; MoveUp/MoveDown change height.
func (c *Controller) MoveInPlaneXZ(keys KeyState, dt float32, obj *object.GameObject) {
	if dt <= 0 {
		return
	}
	tr := &obj.Transform

	look := c.axis(keys, [3]Action{LookUp, LookRight, -1}, [3]Action{LookDown, LookLeft, -1})
	if norm := mat.Norm(look, 2); norm > epsilon {
		look.ScaleVec(float64(c.LookSpeed*dt)/norm, look)
		tr.Rotation[0] += float32(look.AtVec(0))
		tr.Rotation[1] += float32(look.AtVec(1))
	}
	tr.Rotation[0] = min(max(tr.Rotation[0], -MaxPitch), MaxPitch)
	tr.Rotation[1] = object.WrapAngle(tr.Rotation[1])

	s, cs := math.Sincos(float64(tr.Rotation.Y()))
	forward := mat.NewVecDense(3, []float64{s, 0, cs})
	right := mat.NewVecDense(3, []float64{cs, 0, -s})
	up := mat.NewVecDense(3, []float64{0, -1, 0})

	move := mat.NewVecDense(3, nil)
	c.accumulate(keys, move, forward, MoveForward, MoveBackward)
	c.accumulate(keys, move, right, MoveRight, MoveLeft)
	c.accumulate(keys, move, up, MoveUp, MoveDown)

	if norm := mat.Norm(move, 2); norm > epsilon {
		move.ScaleVec(float64(c.MoveSpeed*dt)/norm, move)
		for i := range 3 {
			tr.Translation[i] += float32(move.AtVec(i))
		}
	}
}

// axis builds a (pitch, yaw, 0) look vector; -1 marks an unused slot.
func (c *Controller) axis(keys KeyState, positive, negative [3]Action) *mat.VecDense {
	v := mat.NewVecDense(3, nil)
	for i := range 3 {
		if positive[i] >= 0 && c.pressed(keys, positive[i]) {
			v.SetVec(i, v.AtVec(i)+1)
		}
		if negative[i] >= 0 && c.pressed(keys, negative[i]) {
			v.SetVec(i, v.AtVec(i)-1)
		}
	}
	return v
}

func (c *Controller) accumulate(keys KeyState, move, dir *mat.VecDense, positive, negative Action) {
	if c.pressed(keys, positive) {
		move.AddVec(move, dir)
	}
	if c.pressed(keys, negative) {
		move.SubVec(move, dir)
	}
}

func (c *Controller) pressed(keys KeyState, action Action) bool {
	key, ok := c.Keys[action]
	return ok && keys.Pressed(key)
}
