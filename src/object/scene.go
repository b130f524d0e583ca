package object

import (
	"errors"
	"fmt"
)

var ErrDuplicateID = errors.New("object id already in scene")

// Scene owns the drawable objects, keyed by id and iterated in insertion
// order. It also owns the id allocator, so ids are unique per scene for the
// life of the process.
type Scene struct {
	ids     IDAllocator
	order   []ID
	objects map[ID]*GameObject
}

func NewScene() *Scene {
	return &Scene{
		objects: map[ID]*GameObject{},
	}
}

// NewObject allocates an object with the next id. It is not part of the
// scene until Add is called.
func (s *Scene) NewObject() *GameObject {
	return s.ids.New()
}

// NewPointLight allocates a light object from the scene's id space.
func (s *Scene) NewPointLight(position, color [3]float32, intensity, radius float32) *GameObject {
	return s.ids.NewPointLight(position, color, intensity, radius)
}

func (s *Scene) Add(obj *GameObject) error {
	if _, ok := s.objects[obj.id]; ok {
		return fmt.Errorf("adding object %d: %w", obj.id, ErrDuplicateID)
	}
	if err := obj.Transform.Validate(); err != nil {
		return fmt.Errorf("adding object %d: %w", obj.id, err)
	}
	s.objects[obj.id] = obj
	s.order = append(s.order, obj.id)
	return nil
}

func (s *Scene) Get(id ID) (*GameObject, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

func (s *Scene) Len() int {
	return len(s.order)
}

// Objects returns the objects in insertion order.
func (s *Scene) Objects() []*GameObject {
	result := make([]*GameObject, len(s.order))
	for i, id := range s.order {
		result[i] = s.objects[id]
	}
	return result
}

// Each calls fn for every object in insertion order.
func (s *Scene) Each(fn func(obj *GameObject)) {
	for _, id := range s.order {
		fn(s.objects[id])
	}
}

// Close drops every object and releases one mesh reference per object.
func (s *Scene) Close() {
	for _, id := range s.order {
		if r, ok := s.objects[id].Mesh.(Releaser); ok {
			r.Release()
		}
	}
	s.order = nil
	s.objects = map[ID]*GameObject{}
}
