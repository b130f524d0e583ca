package camera

import (
	"math"
	"testing"

	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func TestPerspectiveRejectsZeroAspect(t *testing.T) {
	cam := New()
	assert.ErrorIs(t, cam.SetPerspectiveProjection(mgl32.DegToRad(50), 0, 0.1, 100), ErrZeroAspect)
	assert.ErrorIs(t, cam.SetPerspectiveProjection(mgl32.DegToRad(50), 1e-9, 0.1, 100), ErrZeroAspect)
	assert.ErrorIs(t, cam.SetPerspectiveProjection(mgl32.DegToRad(50), 1.5, 1, 1), ErrInvalidClip)
	assert.Equal(t, mgl32.Ident4(), cam.Projection(), "failed calls leave the projection untouched")
}

func TestPerspectiveDepthRange(t *testing.T) {
	cam := New()
	require.NoError(t, cam.SetPerspectiveProjection(mgl32.DegToRad(60), 16.0/9.0, 0.1, 50))

	project := func(z float32) mgl32.Vec4 {
		clip := cam.Projection().Mul4x1(mgl32.Vec4{0, 0, z, 1})
		return clip.Mul(1 / clip.W())
	}
	assert.InDelta(t, 0, project(0.1).Z(), eps)
	assert.InDelta(t, 1, project(50).Z(), eps)
	assert.InDelta(t, math.Sqrt(3), cam.Projection().At(1, 1), eps)

	// x is scaled by the aspect ratio relative to y
	p := cam.Projection()
	assert.InDelta(t, p.At(1, 1)/(16.0/9.0), p.At(0, 0), eps)
}

func TestOrthographicMapsVolumeToClip(t *testing.T) {
	cam := New()
	require.NoError(t, cam.SetOrthographicProjection(-2, 2, -1, 1, 0, 10))

	corner := cam.Projection().Mul4x1(mgl32.Vec4{2, 1, 10, 1})
	assert.InDelta(t, 1, corner.X(), eps)
	assert.InDelta(t, 1, corner.Y(), eps)
	assert.InDelta(t, 1, corner.Z(), eps)

	assert.ErrorIs(t, cam.SetOrthographicProjection(1, 1, -1, 1, 0, 10), ErrInvalidClip)
}

func TestViewTargetPutsTargetOnForwardAxis(t *testing.T) {
	cam := New()
	eye := mgl32.Vec3{1, 2, 3}
	target := mgl32.Vec3{4, -1, 7}
	require.NoError(t, cam.SetViewTarget(eye, target, WorldUp))

	p := cam.View().Mul4x1(target.Vec4(1))
	assert.InDelta(t, 0, p.X(), eps)
	assert.InDelta(t, 0, p.Y(), eps)
	assert.InDelta(t, target.Sub(eye).Len(), p.Z(), eps)

	origin := cam.View().Mul4x1(eye.Vec4(1))
	assert.InDelta(t, 0, origin.Vec3().Len(), eps)
	assert.True(t, cam.Position().ApproxEqualThreshold(eye, eps))
}

func TestViewDirectionErrors(t *testing.T) {
	cam := New()
	assert.ErrorIs(t, cam.SetViewDirection(mgl32.Vec3{}, mgl32.Vec3{}, WorldUp), ErrZeroDirection)
	assert.ErrorIs(t, cam.SetViewDirection(mgl32.Vec3{}, mgl32.Vec3{0, 3, 0}, WorldUp), ErrDegenerateBasis)
	assert.ErrorIs(t, cam.SetViewTarget(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}, WorldUp), ErrZeroDirection)
}

func TestViewYXZInvertsObjectTransform(t *testing.T) {
	poses := []object.Transform{
		{Translation: mgl32.Vec3{0, 0, 0}, Scale: mgl32.Vec3{1, 1, 1}},
		{Translation: mgl32.Vec3{1, -2, 5}, Scale: mgl32.Vec3{1, 1, 1}, Rotation: mgl32.Vec3{0.4, 2.1, -0.3}},
		{Translation: mgl32.Vec3{-3, 0, 1}, Scale: mgl32.Vec3{1, 1, 1}, Rotation: mgl32.Vec3{1.5, 0, 0}},
	}
	for _, pose := range poses {
		cam := New()
		cam.SetViewYXZ(pose.Translation, pose.Rotation)

		identity := cam.View().Mul4(pose.ModelMatrix())
		assert.True(t, identity.ApproxEqualThreshold(mgl32.Ident4(), eps), "pose %+v gives\n%v", pose, identity)

		inverse := cam.InverseView().Mul4(cam.View())
		assert.True(t, inverse.ApproxEqualThreshold(mgl32.Ident4(), eps))
	}
}

func TestViewYXZMatchesViewDirectionForYaw(t *testing.T) {
	yaw := float32(0.7)
	eye := mgl32.Vec3{2, 0, -1}

	byEuler := New()
	byEuler.SetViewYXZ(eye, mgl32.Vec3{0, yaw, 0})

	byDirection := New()
	s, c := math.Sincos(float64(yaw))
	require.NoError(t, byDirection.SetViewDirection(eye, mgl32.Vec3{float32(s), 0, float32(c)}, WorldUp))

	assert.True(t, byEuler.View().ApproxEqualThreshold(byDirection.View(), eps),
		"euler\n%v\ndirection\n%v", byEuler.View(), byDirection.View())
}
