// Package camera builds view and projection matrices.
//
// View space has +X to the right, +Y down and +Z into the screen; projection
// maps depth to [0, 1] as Vulkan expects. WorldUp therefore points along -Y.
package camera

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-6

var (
	ErrZeroAspect      = errors.New("aspect ratio is zero")
	ErrInvalidClip     = errors.New("clip volume has zero extent")
	ErrZeroDirection   = errors.New("view direction is zero")
	ErrDegenerateBasis = errors.New("view direction is parallel to up")
)

var WorldUp = mgl32.Vec3{0, -1, 0}

type Camera struct {
	projection  mgl32.Mat4
	view        mgl32.Mat4
	inverseView mgl32.Mat4
}

func New() *Camera {
	return &Camera{
		projection:  mgl32.Ident4(),
		view:        mgl32.Ident4(),
		inverseView: mgl32.Ident4(),
	}
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) error {
	if right == left || bottom == top || far == near {
		return ErrInvalidClip
	}
	c.projection = mgl32.Mat4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (bottom - top), 0, 0,
		0, 0, 1 / (far - near), 0,
		-(right + left) / (right - left), -(bottom + top) / (bottom - top), -near / (far - near), 1,
	}
	return nil
}

// SetPerspectiveProjection takes the vertical field of view in radians.
func (c *Camera) SetPerspectiveProjection(fovY, aspect, near, far float32) error {
	if math.Abs(float64(aspect)) <= epsilon {
		return ErrZeroAspect
	}
	if far == near {
		return ErrInvalidClip
	}
	tanHalfFovY := float32(math.Tan(float64(fovY) / 2))
	c.projection = mgl32.Mat4{
		1 / (aspect * tanHalfFovY), 0, 0, 0,
		0, 1 / tanHalfFovY, 0, 0,
		0, 0, far / (far - near), 1,
		0, 0, -(far * near) / (far - near), 0,
	}
	return nil
}

// SetViewDirection looks from eye along direction. up only has to be
// non-parallel to direction; it is orthogonalised here.
func (c *Camera) SetViewDirection(eye, direction, up mgl32.Vec3) error {
	if direction.Len() <= epsilon {
		return ErrZeroDirection
	}
	w := direction.Normalize()
	right := w.Cross(up)
	if right.Len() <= epsilon {
		return ErrDegenerateBasis
	}
	u := right.Normalize()
	v := w.Cross(u)

	c.setBasis(eye, u, v, w)
	return nil
}

func (c *Camera) SetViewTarget(eye, target, up mgl32.Vec3) error {
	return c.SetViewDirection(eye, target.Sub(eye), up)
}

// SetViewYXZ builds the inverse of translate * Ry * Rx * Rz. It has no
// degenerate orientation, which is why the interactive rig uses it.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	s1, c1 := sincos(rotation.Y())
	s2, c2 := sincos(rotation.X())
	s3, c3 := sincos(rotation.Z())

	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}

	c.setBasis(position, u, v, w)
}

func (c *Camera) setBasis(eye, u, v, w mgl32.Vec3) {
	c.view = mgl32.Mat4{
		u.X(), v.X(), w.X(), 0,
		u.Y(), v.Y(), w.Y(), 0,
		u.Z(), v.Z(), w.Z(), 0,
		-u.Dot(eye), -v.Dot(eye), -w.Dot(eye), 1,
	}
	c.inverseView = mgl32.Mat4{
		u.X(), u.Y(), u.Z(), 0,
		v.X(), v.Y(), v.Z(), 0,
		w.X(), w.Y(), w.Z(), 0,
		eye.X(), eye.Y(), eye.Z(), 1,
	}
}

func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *Camera) View() mgl32.Mat4 {
	return c.view
}

func (c *Camera) InverseView() mgl32.Mat4 {
	return c.inverseView
}

// Position is the eye position in world space.
func (c *Camera) Position() mgl32.Vec3 {
	return c.inverseView.Col(3).Vec3()
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}
