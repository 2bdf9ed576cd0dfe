package app

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/swarm/fxrt/rt/core"
	"github.com/gekko3d/swarm/fxrt/rt/gpu"
	"github.com/gekko3d/swarm/fxrt/rt/shaders"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Setup carries everything the device side needs to mirror a particle store.
type Setup struct {
	Program      shaders.Program
	Layout       core.Layout
	RenderLayout core.Layout
	Seeded       []byte
	Count        int

	FeedWidth, FeedHeight int
	Feed                  func() (*image.RGBA, uint64)

	ShadowSize  uint32
	EnvSize     uint32
	PreviewSize uint32
}

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Buffers  *gpu.ParticleBuffers
	Camera   *gpu.CameraTexture
	Feedback *gpu.FeedbackPass
	Painter  *gpu.Painter
	Profiler *Profiler

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

func NewApp(window *glfw.Window) *App {
	return &App{
		Window:   window,
		Profiler: NewProfiler(),
	}
}

func (a *App) Init(setup Setup) error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return core.Fatal(fmt.Errorf("request adapter: %w", err))
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return core.Fatal(fmt.Errorf("request device: %w", err))
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		return core.Fatal(fmt.Errorf("surface reports no formats"))
	}
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	if a.Buffers, err = gpu.NewParticleBuffers(a.Device, setup.Seeded, setup.Count, setup.Layout.Stride); err != nil {
		return core.Fatal(err)
	}
	if a.Camera, err = gpu.NewCameraTexture(a.Device, setup.FeedWidth, setup.FeedHeight); err != nil {
		return core.Fatal(err)
	}
	a.Feedback, err = gpu.NewFeedbackPass(a.Device, a.Buffers, a.Camera, setup.Layout, setup.Program.Update, setup.Program.Init)
	if err != nil {
		return core.Fatal(err)
	}
	a.Painter, err = gpu.NewPainter(a.Device, a.Buffers, a.Camera, gpu.PainterOptions{
		SurfaceFormat: a.Config.Format,
		ShadowSize:    setup.ShadowSize,
		EnvSize:       setup.EnvSize,
		PreviewSize:   setup.PreviewSize,
		RenderLayout:  setup.RenderLayout,
		RenderWGSL:    setup.Program.Render,
		Feed:          setup.Feed,
	})
	if err != nil {
		return core.Fatal(err)
	}
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// Viewport is the current surface size in pixels.
func (a *App) Viewport() [2]float32 {
	return [2]float32{float32(a.Config.Width), float32(a.Config.Height)}
}

// RenderOffscreen submits draws that never touch the surface, such as the
// particle preview rendered once at setup.
func (a *App) RenderOffscreen(draw func(core.Painter)) error {
	return a.Painter.Frame(nil, draw)
}

// Render acquires the next surface texture, records draw into it and presents.
func (a *App) Render(draw func(core.Painter)) error {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create surface view: %w", err)
	}
	defer view.Release()

	if err := a.Painter.Frame(view, draw); err != nil {
		return err
	}
	a.Surface.Present()

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
		}
	}
	a.LastRenderTime = now
	return nil
}

func (a *App) Release() {
	if a.Painter != nil {
		a.Painter.Release()
	}
	if a.Feedback != nil {
		a.Feedback.Release()
	}
	if a.Camera != nil {
		a.Camera.Release()
	}
	if a.Buffers != nil {
		a.Buffers.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
