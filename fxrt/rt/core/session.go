package core

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"slices"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

type AnchorID string

// Anchor is a tracked world pose the simulation attaches to.
type Anchor struct {
	ID        AnchorID
	Transform mgl32.Mat4
	Created   time.Time
}

// Session supplies anchors, camera matrices and the live camera feed.
// Anchors are returned in insertion order; an empty set is a normal state.
type Session interface {
	Anchors() []Anchor
	AddAnchorRelativeToCamera(offset mgl32.Vec3) (AnchorID, error)
	RemoveAnchor(id AnchorID) bool
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
	// CameraFrame returns the latest feed image and its sequence number.
	CameraFrame() (*image.RGBA, uint64)
}

const (
	defaultFeedWidth  = 640
	defaultFeedHeight = 360
	proceduralWidth   = 32
	proceduralHeight  = 18
	hueDriftPerSecond = 0.02
	orbitSensitivity  = 0.005
	maxPitch          = 1.4
)

type SimSessionOptions struct {
	FeedWidth, FeedHeight int
	FovY                  float32 // degrees
	Near, Far             float32
	Aspect                float32
	// Pivot is the point the camera orbits. The default camera sits at the
	// world origin looking down -Z at the pivot.
	Pivot mgl32.Vec3
	// Camera replaces the procedural feed when set.
	Camera image.Image
	Now    func() time.Time
}

// SimSession stands in for an AR session on the desktop: an orbit camera,
// anchors kept in memory, and a camera feed built from an image or a gradient.
type SimSession struct {
	opts    SimSessionOptions
	yaw     float32
	pitch   float32
	dist    float32
	anchors []Anchor

	feed     *image.RGBA
	feedSeq  uint64
	hue      float32
	small    *image.RGBA
	hasImage bool
}

func NewSimSession(opts SimSessionOptions) *SimSession {
	if opts.FeedWidth <= 0 || opts.FeedHeight <= 0 {
		opts.FeedWidth, opts.FeedHeight = defaultFeedWidth, defaultFeedHeight
	}
	if opts.FovY <= 0 {
		opts.FovY = 60
	}
	if opts.Near <= 0 {
		opts.Near = 0.01
	}
	if opts.Far <= opts.Near {
		opts.Far = 100
	}
	if opts.Aspect <= 0 {
		opts.Aspect = float32(opts.FeedWidth) / float32(opts.FeedHeight)
	}
	if opts.Pivot == (mgl32.Vec3{}) {
		opts.Pivot = mgl32.Vec3{0, 0, -2}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &SimSession{
		opts: opts,
		dist: opts.Pivot.Len(),
		feed: image.NewRGBA(image.Rect(0, 0, opts.FeedWidth, opts.FeedHeight)),
	}
	if opts.Camera != nil {
		draw.CatmullRom.Scale(s.feed, s.feed.Bounds(), opts.Camera, opts.Camera.Bounds(), draw.Src, nil)
		s.hasImage = true
	} else {
		s.small = image.NewRGBA(image.Rect(0, 0, proceduralWidth, proceduralHeight))
		s.renderGradient()
	}
	s.feedSeq = 1
	return s
}

// LoadCameraImage decodes a PNG, JPEG, BMP or WebP file for use as the feed.
func LoadCameraImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("camera image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("camera image %s: %w", path, err)
	}
	return img, nil
}

func (s *SimSession) Anchors() []Anchor { return slices.Clone(s.anchors) }

// AddAnchorRelativeToCamera places an anchor at offset in camera space.
func (s *SimSession) AddAnchorRelativeToCamera(offset mgl32.Vec3) (AnchorID, error) {
	camera := s.ViewMatrix().Inv()
	if camera == (mgl32.Mat4{}) {
		return "", fmt.Errorf("session: camera pose is singular")
	}
	a := Anchor{
		ID:        AnchorID(uuid.NewString()),
		Transform: camera.Mul4(mgl32.Translate3D(offset.X(), offset.Y(), offset.Z())),
		Created:   s.opts.Now(),
	}
	s.anchors = append(s.anchors, a)
	return a.ID, nil
}

func (s *SimSession) RemoveAnchor(id AnchorID) bool {
	i := slices.IndexFunc(s.anchors, func(a Anchor) bool { return a.ID == id })
	if i < 0 {
		return false
	}
	s.anchors = slices.Delete(s.anchors, i, i+1)
	return true
}

func (s *SimSession) Eye() mgl32.Vec3 {
	cp := math32.Cos(s.pitch)
	dir := mgl32.Vec3{math32.Sin(s.yaw) * cp, math32.Sin(s.pitch), math32.Cos(s.yaw) * cp}
	return s.opts.Pivot.Add(dir.Mul(s.dist))
}

func (s *SimSession) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(s.Eye(), s.opts.Pivot, mgl32.Vec3{0, 1, 0})
}

func (s *SimSession) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(s.opts.FovY), s.opts.Aspect, s.opts.Near, s.opts.Far)
}

func (s *SimSession) CameraFrame() (*image.RGBA, uint64) { return s.feed, s.feedSeq }

// Orbit rotates the camera around the pivot by pixel deltas.
func (s *SimSession) Orbit(dx, dy float32) {
	s.yaw -= dx * orbitSensitivity
	s.pitch = mgl32.Clamp(s.pitch+dy*orbitSensitivity, -maxPitch, maxPitch)
}

func (s *SimSession) SetAspect(aspect float32) {
	if aspect > 0 {
		s.opts.Aspect = aspect
	}
}

// Advance drifts the procedural feed hue and publishes a new frame.
// An image-backed feed is static.
func (s *SimSession) Advance(dt float64) {
	if s.hasImage || dt <= 0 {
		return
	}
	s.hue = math32.Mod(s.hue+float32(dt)*hueDriftPerSecond, 1)
	s.renderGradient()
	s.feedSeq++
}

func (s *SimSession) renderGradient() {
	b := s.small.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		v := 0.25 + 0.6*float32(b.Max.Y-y)/float32(b.Dy())
		for x := b.Min.X; x < b.Max.X; x++ {
			h := s.hue + 0.15*float32(x)/float32(b.Dx())
			s.small.SetRGBA(x, y, hsv(h, 0.45, v))
		}
	}
	draw.ApproxBiLinear.Scale(s.feed, s.feed.Bounds(), s.small, b, draw.Src, nil)
}

func hsv(h, sat, v float32) color.RGBA {
	h = math32.Mod(h, 1) * 6
	i := math32.Floor(h)
	f := h - i
	p, q, t := v*(1-sat), v*(1-sat*f), v*(1-sat*(1-f))

	var r, g, b float32
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}
