package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Target is a render destination. Everything but TargetScreen is an
// off-screen texture reused every frame.
type Target int

const (
	TargetScreen Target = iota
	TargetShadow
	TargetEnvironment
	TargetPreview
)

func (t Target) String() string {
	switch t {
	case TargetScreen:
		return "screen"
	case TargetShadow:
		return "shadow"
	case TargetEnvironment:
		return "environment"
	case TargetPreview:
		return "preview"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// TextureUnit numbers are fixed and shared with the point render programs.
type TextureUnit int

const (
	UnitShadow      TextureUnit = 0
	UnitPreview     TextureUnit = 1
	UnitEnvironment TextureUnit = 2
)

// PointUniforms are the per-draw inputs of the point render programs.
type PointUniforms struct {
	Viewport   [2]float32
	Offset     float32
	Closing    float32
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Translate  mgl32.Mat4 // anchor pose
	Shadow     mgl32.Mat4 // world to light clip space
	Touch      mgl32.Mat4 // background projection*view at placement time
	Light      mgl32.Vec3
}

// Painter issues draw commands for one frame. Implementations own the targets.
type Painter interface {
	Clear(t Target)
	DrawCameraFeed(t Target)
	DrawTexture(t Target, unit TextureUnit)
	DrawPoints(t Target, binding Binding, count int, u *PointUniforms)
	DrawPreviewSphere(t Target, light mgl32.Vec3)
}

// ShadowPass renders particle positions from the light into the depth target.
type ShadowPass struct {
	Light      LightCamera
	Size       int
	ModelScale float32
}

func (s ShadowPass) Render(p Painter, binding Binding, count int, progress Progress) {
	p.Clear(TargetShadow)
	u := &PointUniforms{
		Viewport:   [2]float32{float32(s.Size), float32(s.Size)},
		Offset:     progress.Value(),
		Model:      mgl32.Scale3D(s.ModelScale, s.ModelScale, s.ModelScale),
		View:       s.Light.View(),
		Projection: s.Light.Projection(),
		Translate:  mgl32.Ident4(),
		Shadow:     s.Light.ShadowMatrix(),
		Touch:      mgl32.Ident4(),
		Light:      s.Light.Position,
	}
	if progress.Closing() {
		u.Closing = 1
	}
	p.DrawPoints(TargetShadow, binding, count, u)
}

// EnvironmentPass snapshots the camera feed into the environment texture.
// The painter owns the target and its size.
type EnvironmentPass struct{}

func (EnvironmentPass) Render(p Painter) {
	p.Clear(TargetEnvironment)
	p.DrawCameraFeed(TargetEnvironment)
}

// PreviewPass renders the lit sphere sprite once at setup.
type PreviewPass struct {
	Light mgl32.Vec3
}

func (pp PreviewPass) Render(p Painter) {
	p.Clear(TargetPreview)
	p.DrawPreviewSphere(TargetPreview, pp.Light)
}
