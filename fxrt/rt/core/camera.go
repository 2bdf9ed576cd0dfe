package core

import "github.com/go-gl/mathgl/mgl32"

// LightCamera is the fixed viewpoint the shadow map is rendered from.
// It always looks at the world origin.
type LightCamera struct {
	Position mgl32.Vec3
	FovY     float32 // degrees
	Near     float32
	Far      float32
	Aspect   float32
}

func DefaultLightCamera() LightCamera {
	return LightCamera{
		Position: mgl32.Vec3{0, 10, 4}.Mul(0.035),
		FovY:     100,
		Near:     0.1,
		Far:      10,
		Aspect:   1,
	}
}

func (c LightCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

func (c LightCamera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// ShadowMatrix maps world space into the light's clip space.
func (c LightCamera) ShadowMatrix() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}
