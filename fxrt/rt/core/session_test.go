package core

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestSimSession_AnchorOrder(t *testing.T) {
	s := NewSimSession(SimSessionOptions{Now: fixedClock()})
	assert.Empty(t, s.Anchors())

	a, err := s.AddAnchorRelativeToCamera(mgl32.Vec3{0, 0, -2})
	require.NoError(t, err)
	b, err := s.AddAnchorRelativeToCamera(mgl32.Vec3{0, 0, -2})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	anchors := s.Anchors()
	require.Len(t, anchors, 2)
	assert.Equal(t, a, anchors[0].ID)
	assert.Equal(t, b, anchors[1].ID)
	assert.True(t, anchors[0].Created.Before(anchors[1].Created))

	assert.True(t, s.RemoveAnchor(a))
	assert.False(t, s.RemoveAnchor(a))
	require.Len(t, s.Anchors(), 1)
	assert.Equal(t, b, s.Anchors()[0].ID)
}

func TestSimSession_AnchorInFrontOfCamera(t *testing.T) {
	s := NewSimSession(SimSessionOptions{})

	_, err := s.AddAnchorRelativeToCamera(mgl32.Vec3{0, 0, -2})
	require.NoError(t, err)

	pos := s.Anchors()[0].Transform.Col(3).Vec3()
	assert.InDelta(t, 0, pos.X(), 1e-5)
	assert.InDelta(t, 0, pos.Y(), 1e-5)
	assert.InDelta(t, -2, pos.Z(), 1e-5)
}

func TestSimSession_OrbitKeepsPivot(t *testing.T) {
	s := NewSimSession(SimSessionOptions{})
	s.Orbit(300, -120)

	pivot := s.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, -2, 1})
	assert.InDelta(t, 0, pivot.X(), 1e-4)
	assert.InDelta(t, 0, pivot.Y(), 1e-4)
	assert.InDelta(t, -2, pivot.Z(), 1e-4)
}

func TestSimSession_ProceduralFeedAdvances(t *testing.T) {
	s := NewSimSession(SimSessionOptions{FeedWidth: 64, FeedHeight: 32})

	img, seq := s.CameraFrame()
	assert.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())
	assert.Equal(t, uint64(1), seq)

	s.Advance(0.5)
	_, seq = s.CameraFrame()
	assert.Equal(t, uint64(2), seq)
}

func TestSimSession_ImageFeedIsScaled(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetRGBA(x, y, color.RGBA{0, 200, 0, 255})
		}
	}
	s := NewSimSession(SimSessionOptions{FeedWidth: 32, FeedHeight: 16, Camera: src})

	img, seq := s.CameraFrame()
	assert.Equal(t, 32, img.Bounds().Dx())
	c := img.RGBAAt(16, 8)
	assert.InDelta(t, 200, int(c.G), 2)
	assert.InDelta(t, 0, int(c.R), 2)

	s.Advance(1)
	_, next := s.CameraFrame()
	assert.Equal(t, seq, next)
}
