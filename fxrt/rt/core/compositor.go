package core

import "github.com/go-gl/mathgl/mgl32"

// Compositor draws the final frame. Without anchors it shows the environment
// texture full-screen and nothing else.
type Compositor struct {
	ModelScale float32
	Light      LightCamera

	touch mgl32.Mat4
}

func NewCompositor(modelScale float32, light LightCamera) *Compositor {
	return &Compositor{ModelScale: modelScale, Light: light, touch: mgl32.Ident4()}
}

// Placement is the object to world transform of particles drawn at anchor a.
func (c *Compositor) Placement(a Anchor) mgl32.Mat4 {
	return a.Transform.Mul4(mgl32.Scale3D(c.ModelScale, c.ModelScale, c.ModelScale))
}

// Touch is the background transform held since the first anchor appeared.
func (c *Compositor) Touch() mgl32.Mat4 { return c.touch }

// Draw composites one frame and reports whether particles were drawn.
func (c *Compositor) Draw(p Painter, s Session, binding Binding, count int, progress Progress, viewport [2]float32) bool {
	view, projection := s.ViewMatrix(), s.ProjectionMatrix()
	anchors := s.Anchors()

	p.Clear(TargetScreen)
	if len(anchors) == 0 {
		c.touch = projection.Mul4(view)
		p.DrawTexture(TargetScreen, UnitEnvironment)
		return false
	}

	p.DrawCameraFeed(TargetScreen)
	u := &PointUniforms{
		Viewport:   viewport,
		Offset:     progress.Value(),
		Model:      mgl32.Scale3D(c.ModelScale, c.ModelScale, c.ModelScale),
		View:       view,
		Projection: projection,
		Translate:  anchors[0].Transform,
		Shadow:     c.Light.ShadowMatrix(),
		Touch:      c.touch,
		Light:      c.Light.Position,
	}
	if progress.Closing() {
		u.Closing = 1
	}
	p.DrawPoints(TargetScreen, binding, count, u)
	return true
}
