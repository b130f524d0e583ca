package model

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var ErrNoMeshes = errors.New("no mesh geometry")

// LoadGLTF merges every triangle primitive of a .gltf/.glb file into one
// indexed mesh.
func LoadGLTF(path string) (*Builder, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	b, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func FromDocument(doc *gltf.Document) (*Builder, error) {
	b := &Builder{}
	for mi, mesh := range doc.Meshes {
		for pi, primitive := range mesh.Primitives {
			if primitive.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := b.appendPrimitive(doc, primitive); err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
		}
	}
	if len(b.Vertices) == 0 {
		return nil, ErrNoMeshes
	}
	return b, nil
}

func (b *Builder) appendPrimitive(doc *gltf.Document, primitive *gltf.Primitive) error {
	posIdx, ok := primitive.Attributes[gltf.POSITION]
	if !ok {
		return errors.New("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := primitive.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := primitive.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("texture coordinates: %w", err)
		}
	}

	base := uint32(len(b.Vertices))
	for i, p := range positions {
		v := Vertex{
			Position: p,
			Color:    mgl32.Vec3{1, 1, 1},
		}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		b.Vertices = append(b.Vertices, v)
	}

	if primitive.Indices == nil {
		for i := range uint32(len(positions)) {
			b.Indices = append(b.Indices, base+i)
		}
		return nil
	}
	indices, err := modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil)
	if err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	for _, idx := range indices {
		b.Indices = append(b.Indices, base+idx)
	}
	return nil
}
