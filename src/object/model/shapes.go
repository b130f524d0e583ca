package model

import "github.com/go-gl/mathgl/mgl32"

// Built-in sources understood by Load.
const (
	SourceCube = "cube"
	SourceQuad = "quad"
)

// Load resolves a mesh source: a built-in shape name or a glTF file path.
func Load(source string) (*Builder, error) {
	switch source {
	case SourceCube:
		return Cube(), nil
	case SourceQuad:
		return Quad(), nil
	default:
		return LoadGLTF(source)
	}
}

// Cube is a unit cube centred on the origin with one flat-shaded quad per
// face.
func Cube() *Builder {
	faces := []struct {
		normal mgl32.Vec3
		u, v   mgl32.Vec3
	}{
		{normal: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
		{normal: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
		{normal: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
		{normal: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	}

	b := &Builder{}
	for _, f := range faces {
		base := uint32(len(b.Vertices))
		center := f.normal.Mul(0.5)
		for _, c := range [4][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}} {
			b.Vertices = append(b.Vertices, Vertex{
				Position: center.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])),
				Color:    mgl32.Vec3{1, 1, 1},
				Normal:   f.normal,
				UV:       mgl32.Vec2{c[0] + 0.5, c[1] + 0.5},
			})
		}
		b.Indices = append(b.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return b
}

// Quad is a unit square in the XZ plane facing up, which is -Y.
func Quad() *Builder {
	up := mgl32.Vec3{0, -1, 0}
	b := &Builder{
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	for _, c := range [4][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}} {
		b.Vertices = append(b.Vertices, Vertex{
			Position: mgl32.Vec3{c[0], 0, c[1]},
			Color:    mgl32.Vec3{1, 1, 1},
			Normal:   up,
			UV:       mgl32.Vec2{c[0] + 0.5, c[1] + 0.5},
		})
	}
	return b
}
