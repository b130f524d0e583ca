// Package animation holds the simulation steps run before rendering.
package animation

import (
	"github.com/WowVeryLogin/vulkan_scene/src/frame"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
)

// DefaultSpinIncrement is the per-frame rotation, in radians, of the idle spin.
const DefaultSpinIncrement = 0.0001

// IdleRotation turns every drawable object by a fixed amount per frame on
// all three axes. The step is per frame, not per second.
type IdleRotation struct {
	Increment float32
}

func NewIdleRotation(increment float32) *IdleRotation {
	return &IdleRotation{Increment: increment}
}

func (r *IdleRotation) Update(info *frame.FrameInfo) {
	if r.Increment == 0 {
		return
	}
	info.Objects.Each(func(obj *object.GameObject) {
		if obj.Mesh != nil {
			obj.Transform.Spin(r.Increment)
		}
	})
}
