package core

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestBlackHoleUpdate_Respawn(t *testing.T) {
	p := BlackHoleParticle{
		Position: [3]float32{1, 1, 0},
		Velocity: [3]float32{0.1, 0, 0},
		Origin:   [3]float32{2, 0, 0},
		Random:   [3]float32{0.5, 0.5, 1},
		Life:     0.001,
	}
	out := BlackHoleUpdate(p, &Uniforms{Offset: 1})

	assert.Equal(t, p.Origin, out.Position)
	assert.Equal(t, [3]float32{}, out.Velocity)
	assert.Equal(t, float32(1), out.Life)
}

func TestBlackHoleUpdate_RestingWhileIdle(t *testing.T) {
	p := BlackHoleParticle{Position: [3]float32{2, 0, 0}, Origin: [3]float32{2, 0, 0}, Life: 0.5}
	out := BlackHoleUpdate(p, &Uniforms{Time: 3})

	assert.Equal(t, p.Position, out.Position)
	assert.Equal(t, p.Life, out.Life)
}

func TestBlackHoleUpdate_PullsInward(t *testing.T) {
	p := BlackHoleParticle{Position: [3]float32{2, 0, 0}, Origin: [3]float32{2, 0, 0}, Life: 0.5}
	u := &Uniforms{Offset: 1}
	for i := 0; i < 20; i++ {
		p = BlackHoleUpdate(p, u)
	}
	assert.Less(t, mgl32.Vec3(p.Position).Len(), float32(2))
}

func TestPixelUpdate_SettlesAtOriginWhenClosed(t *testing.T) {
	p := PixelParticle{Position: [3]float32{0.1, 0.2, 0}, Origin: [3]float32{0, 0, 0}}
	u := &Uniforms{}
	for i := 0; i < 500; i++ {
		p = PixelUpdate(p, u)
	}
	assert.InDelta(t, 0, mgl32.Vec3(p.Position).Len(), 1e-3)
}

func TestPixelInit_SamplesCameraFrame(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			frame.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	u := &Uniforms{
		Model:      mgl32.Translate3D(0, 0, -2),
		View:       mgl32.Ident4(),
		Projection: mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 10),
		Camera:     frame,
	}

	out := PixelInit(PixelParticle{Color: [3]float32{0, 0, 1}}, u)
	assert.Equal(t, [3]float32{1, 0, 0}, out.Color)

	behind := PixelInit(PixelParticle{Position: [3]float32{0, 0, 4}, Color: [3]float32{0, 0, 1}}, u)
	assert.Equal(t, [3]float32{0, 0, 1}, behind.Color)

	// The model scale applies before projection: x=1 lands at x=10, off screen.
	u.Model = mgl32.Translate3D(0, 0, -2).Mul4(mgl32.Scale3D(10, 10, 10))
	scaled := PixelInit(PixelParticle{Position: [3]float32{1, 0, 0}, Color: [3]float32{0, 0, 1}}, u)
	assert.Equal(t, [3]float32{0, 0, 1}, scaled.Color)
	u.Model = mgl32.Translate3D(0, 0, -2)
	assert.Equal(t, [3]float32{1, 0, 0}, PixelInit(PixelParticle{Position: [3]float32{1, 0, 0}}, u).Color)

	u.Camera = nil
	assert.Equal(t, [3]float32{0, 0, 1}, PixelInit(PixelParticle{Color: [3]float32{0, 0, 1}}, u).Color)
}

func TestFatal(t *testing.T) {
	assert.Nil(t, Fatal(nil))
	err := Fatal(assert.AnError)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, err, Fatal(err))
}

func TestEntrainmentUpdate_PhaseWrapsAndRadiusHolds(t *testing.T) {
	p := PixelParticle{
		Position: [3]float32{0, 1, 0},
		Origin:   [3]float32{0, 1, 0},
		Color:    [3]float32{6.27, 0.5, 0.5},
	}
	u := &Uniforms{}
	for i := 0; i < 200; i++ {
		p = EntrainmentUpdate(p, u)
		assert.GreaterOrEqual(t, p.Color[0], float32(0))
		assert.Less(t, p.Color[0], float32(6.2832))
	}
	assert.InDelta(t, 1, mgl32.Vec3(p.Position).Len(), 1e-3)
}
