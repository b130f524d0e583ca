// Package commandtest provides an in-memory command.Recorder for tests.
package commandtest

import (
	"unsafe"

	"github.com/goki/vulkan"
)

const (
	OpBindPipeline       = "bind_pipeline"
	OpBindDescriptorSets = "bind_descriptor_sets"
	OpPushConstants      = "push_constants"
	OpBindVertexBuffers  = "bind_vertex_buffers"
	OpBindIndexBuffer    = "bind_index_buffer"
	OpDraw               = "draw"
	OpDrawIndexed        = "draw_indexed"
)

// Call is one recorded command.
type Call struct {
	Op       string
	Sets     int
	Stages   vulkan.ShaderStageFlags
	Data     []byte
	Count    uint32
	Instance uint32
}

// Recorder keeps every command in order. Push-constant payloads are copied
// so callers may reuse their structs.
type Recorder struct {
	Calls []Call
}

func (r *Recorder) BindPipeline(vulkan.Pipeline) {
	r.Calls = append(r.Calls, Call{Op: OpBindPipeline})
}

func (r *Recorder) BindDescriptorSets(_ vulkan.PipelineLayout, sets ...vulkan.DescriptorSet) {
	r.Calls = append(r.Calls, Call{Op: OpBindDescriptorSets, Sets: len(sets)})
}

func (r *Recorder) PushConstants(_ vulkan.PipelineLayout, stages vulkan.ShaderStageFlags, size uint32, data unsafe.Pointer) {
	payload := make([]byte, size)
	copy(payload, unsafe.Slice((*byte)(data), size))
	r.Calls = append(r.Calls, Call{Op: OpPushConstants, Stages: stages, Data: payload})
}

func (r *Recorder) BindVertexBuffers(buffers ...vulkan.Buffer) {
	r.Calls = append(r.Calls, Call{Op: OpBindVertexBuffers, Count: uint32(len(buffers))})
}

func (r *Recorder) BindIndexBuffer(vulkan.Buffer) {
	r.Calls = append(r.Calls, Call{Op: OpBindIndexBuffer})
}

func (r *Recorder) Draw(vertexCount, instanceCount uint32) {
	r.Calls = append(r.Calls, Call{Op: OpDraw, Count: vertexCount, Instance: instanceCount})
}

func (r *Recorder) DrawIndexed(indexCount, instanceCount uint32) {
	r.Calls = append(r.Calls, Call{Op: OpDrawIndexed, Count: indexCount, Instance: instanceCount})
}

// Ops lists the recorded operation names in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Filter returns the calls with the given op.
func (r *Recorder) Filter(op string) []Call {
	var calls []Call
	for _, c := range r.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// Draws counts indexed and non-indexed draw calls.
func (r *Recorder) Draws() int {
	return len(r.Filter(OpDraw)) + len(r.Filter(OpDrawIndexed))
}

// PushedAs reinterprets a recorded payload as T.
func PushedAs[T any](c Call) T {
	var v T
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)), c.Data)
	return v
}
