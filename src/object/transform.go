package object

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/mat"
)

var ErrZeroScale = errors.New("transform scale has a zero component")

// Transform places an object in the world. Rotation holds Tait-Bryan angles
// in radians applied in Y, X, Z order.
type Transform struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Validate rejects scales that make the normal matrix singular.
func (t Transform) Validate() error {
	for _, s := range t.Scale {
		if s == 0 {
			return ErrZeroScale
		}
	}
	return nil
}

// ModelMatrix returns translate * Ry * Rx * Rz * scale.
func (t Transform) ModelMatrix() mgl32.Mat4 {
	return toMat4(compose(
		translationDense(t.Translation),
		rotationYDense(t.Rotation.Y()),
		rotationXDense(t.Rotation.X()),
		rotationZDense(t.Rotation.Z()),
		scaleDense(t.Scale),
	))
}

// NormalMatrix returns the inverse transpose of the model matrix's upper 3x3.
// For R*S that is R*S^-1, so no general inversion is needed.
func (t Transform) NormalMatrix() mgl32.Mat3 {
	inverseScale := mgl32.Vec3{1 / t.Scale.X(), 1 / t.Scale.Y(), 1 / t.Scale.Z()}
	m := compose(
		rotationYDense(t.Rotation.Y()),
		rotationXDense(t.Rotation.X()),
		rotationZDense(t.Rotation.Z()),
		scaleDense(inverseScale),
	)

	var normal mgl32.Mat3
	for col := range 3 {
		for row := range 3 {
			normal[col*3+row] = float32(m.At(row, col))
		}
	}
	return normal
}

// Spin adds delta to every rotation axis, keeping each angle in [0, 2π).
func (t *Transform) Spin(delta float32) {
	for i := range t.Rotation {
		t.Rotation[i] = WrapAngle(t.Rotation[i] + delta)
	}
}

// WrapAngle maps a into [0, 2π).
func WrapAngle(a float32) float32 {
	const twoPi = 2 * math.Pi
	wrapped := math.Mod(float64(a), twoPi)
	if wrapped < 0 {
		wrapped += twoPi
	}
	if float32(wrapped) >= twoPi {
		return 0
	}
	return float32(wrapped)
}

func compose(ms ...*mat.Dense) *mat.Dense {
	result := ms[0]
	for _, m := range ms[1:] {
		var next mat.Dense
		next.Mul(result, m)
		result = &next
	}
	return result
}

func toMat4(m *mat.Dense) mgl32.Mat4 {
	var out mgl32.Mat4
	for row := range 4 {
		for col, v := range m.RawRowView(row) {
			out[col*4+row] = float32(v)
		}
	}
	return out
}

func translationDense(v mgl32.Vec3) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, float64(v.X()),
		0, 1, 0, float64(v.Y()),
		0, 0, 1, float64(v.Z()),
		0, 0, 0, 1,
	})
}

func scaleDense(v mgl32.Vec3) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		float64(v.X()), 0, 0, 0,
		0, float64(v.Y()), 0, 0,
		0, 0, float64(v.Z()), 0,
		0, 0, 0, 1,
	})
}

func rotationXDense(angle float32) *mat.Dense {
	s, c := math.Sincos(float64(angle))
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	})
}

func rotationYDense(angle float32) *mat.Dense {
	s, c := math.Sincos(float64(angle))
	return mat.NewDense(4, 4, []float64{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	})
}

func rotationZDense(angle float32) *mat.Dense {
	s, c := math.Sincos(float64(angle))
	return mat.NewDense(4, 4, []float64{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}
