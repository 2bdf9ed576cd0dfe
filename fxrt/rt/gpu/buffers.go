package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// ParticleBuffers are the two device copies of the particle store. Both are
// usable as compute storage and as instance vertex input.
type ParticleBuffers struct {
	Buffers [2]*wgpu.Buffer
	Count   int
	Stride  uint64
}

// NewParticleBuffers uploads the seeded records into buffer 0 and leaves
// buffer 1 zeroed.
func NewParticleBuffers(device *wgpu.Device, seeded []byte, count int, stride uint64) (*ParticleBuffers, error) {
	size := uint64(count) * stride
	if count <= 0 || uint64(len(seeded)) != size {
		return nil, fmt.Errorf("particle buffers: %d bytes for %d records of %d", len(seeded), count, stride)
	}

	pb := &ParticleBuffers{Count: count, Stride: stride}
	for i := range pb.Buffers {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("Particles %d", i),
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		})
		if err != nil {
			pb.Release()
			return nil, fmt.Errorf("particle buffer %d: %w", i, err)
		}
		pb.Buffers[i] = buf
	}
	device.GetQueue().WriteBuffer(pb.Buffers[0], 0, seeded)
	device.GetQueue().WriteBuffer(pb.Buffers[1], 0, make([]byte, size))
	return pb, nil
}

func (pb *ParticleBuffers) Size() uint64 { return uint64(pb.Count) * pb.Stride }

func (pb *ParticleBuffers) Release() {
	for i, buf := range pb.Buffers {
		if buf != nil {
			buf.Release()
			pb.Buffers[i] = nil
		}
	}
}

// CameraTexture mirrors the latest camera feed frame on the device.
type CameraTexture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32

	queue *wgpu.Queue
	seq   uint64
}

func NewCameraTexture(device *wgpu.Device, width, height int) (*CameraTexture, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Camera Feed",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("camera texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("camera texture view: %w", err)
	}
	return &CameraTexture{
		Texture: tex,
		View:    view,
		Width:   uint32(width),
		Height:  uint32(height),
		queue:   device.GetQueue(),
	}, nil
}

// Write uploads img unconditionally.
func (c *CameraTexture) Write(img *image.RGBA) error {
	b := img.Bounds()
	if uint32(b.Dx()) != c.Width || uint32(b.Dy()) != c.Height {
		return fmt.Errorf("camera frame %dx%d does not match texture %dx%d", b.Dx(), b.Dy(), c.Width, c.Height)
	}
	c.queue.WriteTexture(c.Texture.AsImageCopy(), img.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(img.Stride),
		RowsPerImage: c.Height,
	}, &wgpu.Extent3D{Width: c.Width, Height: c.Height, DepthOrArrayLayers: 1})
	return nil
}

// Sync uploads img only when its sequence number moved.
func (c *CameraTexture) Sync(img *image.RGBA, seq uint64) error {
	if img == nil || seq == c.seq {
		return nil
	}
	if err := c.Write(img); err != nil {
		return err
	}
	c.seq = seq
	return nil
}

func (c *CameraTexture) Release() {
	if c.View != nil {
		c.View.Release()
	}
	if c.Texture != nil {
		c.Texture.Release()
	}
}
