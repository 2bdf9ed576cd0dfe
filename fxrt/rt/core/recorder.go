package core

import "github.com/go-gl/mathgl/mgl32"

type PaintOp string

const (
	OpClear   PaintOp = "clear"
	OpCamera  PaintOp = "camera"
	OpTexture PaintOp = "texture"
	OpPoints  PaintOp = "points"
	OpSphere  PaintOp = "sphere"
)

// PaintCall is one recorded Painter call.
type PaintCall struct {
	Op       PaintOp
	Target   Target
	Unit     TextureUnit
	Binding  Binding
	Count    int
	Uniforms PointUniforms
	Light    mgl32.Vec3
}

// Recorder is a Painter that keeps every call. It backs the headless renderer
// and the tests.
type Recorder struct {
	Calls []PaintCall
}

func (r *Recorder) Clear(t Target) {
	r.Calls = append(r.Calls, PaintCall{Op: OpClear, Target: t})
}

func (r *Recorder) DrawCameraFeed(t Target) {
	r.Calls = append(r.Calls, PaintCall{Op: OpCamera, Target: t})
}

func (r *Recorder) DrawTexture(t Target, unit TextureUnit) {
	r.Calls = append(r.Calls, PaintCall{Op: OpTexture, Target: t, Unit: unit})
}

func (r *Recorder) DrawPoints(t Target, binding Binding, count int, u *PointUniforms) {
	r.Calls = append(r.Calls, PaintCall{Op: OpPoints, Target: t, Binding: binding, Count: count, Uniforms: *u})
}

func (r *Recorder) DrawPreviewSphere(t Target, light mgl32.Vec3) {
	r.Calls = append(r.Calls, PaintCall{Op: OpSphere, Target: t, Light: light})
}

func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// Find returns the recorded calls matching op and target.
func (r *Recorder) Find(op PaintOp, t Target) []PaintCall {
	var out []PaintCall
	for _, c := range r.Calls {
		if c.Op == op && c.Target == t {
			out = append(out, c)
		}
	}
	return out
}
