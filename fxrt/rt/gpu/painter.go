package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/fxrt/rt/core"
	"github.com/gekko3d/swarm/fxrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	offscreenFormat = wgpu.TextureFormatRGBA8Unorm
	shadowFormat    = wgpu.TextureFormatDepth32Float
)

var errNoFrame = errors.New("painter: draw outside of a frame")

type PainterOptions struct {
	SurfaceFormat wgpu.TextureFormat
	ShadowSize    uint32
	EnvSize       uint32
	PreviewSize   uint32
	// RenderLayout is the render program's view of the record.
	RenderLayout core.Layout
	RenderWGSL   string
	// Feed returns the latest camera frame and its sequence number.
	Feed func() (*image.RGBA, uint64)
}

type target struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	format  wgpu.TextureFormat
}

// Painter implements core.Painter on WebGPU. Every target owns its uniform
// buffer, so passes recorded into one submission never share uniform data.
type Painter struct {
	device  *wgpu.Device
	queue   *wgpu.Queue
	buffers *ParticleBuffers
	camera  *CameraTexture
	feed    func() (*image.RGBA, uint64)

	shadow  target
	env     target
	preview target
	surface wgpu.TextureFormat

	linear  *wgpu.Sampler
	compare *wgpu.Sampler

	pointsPipeline  *wgpu.RenderPipeline
	shadowPipeline  *wgpu.RenderPipeline
	previewPipeline *wgpu.RenderPipeline
	blitPipelines   map[wgpu.TextureFormat]*wgpu.RenderPipeline
	blitLayout      *wgpu.BindGroupLayout

	screenFrame *wgpu.Buffer
	shadowFrame *wgpu.Buffer
	previewBuf  *wgpu.Buffer

	pointsGroup  *wgpu.BindGroup
	shadowGroup  *wgpu.BindGroup
	previewGroup *wgpu.BindGroup
	blitGroups   map[string]*wgpu.BindGroup

	// Per frame.
	encoder    *wgpu.CommandEncoder
	screen     *wgpu.TextureView
	pass       *wgpu.RenderPassEncoder
	passTarget core.Target
	err        error
}

func NewPainter(device *wgpu.Device, buffers *ParticleBuffers, camera *CameraTexture, opts PainterOptions) (*Painter, error) {
	p := &Painter{
		device:        device,
		queue:         device.GetQueue(),
		buffers:       buffers,
		camera:        camera,
		feed:          opts.Feed,
		surface:       opts.SurfaceFormat,
		blitPipelines: make(map[wgpu.TextureFormat]*wgpu.RenderPipeline),
		blitGroups:    make(map[string]*wgpu.BindGroup),
	}

	var err error
	if p.shadow, err = p.createTarget("Shadow Map", opts.ShadowSize, shadowFormat); err != nil {
		return nil, err
	}
	if p.env, err = p.createTarget("Environment", opts.EnvSize, offscreenFormat); err != nil {
		return nil, err
	}
	if p.preview, err = p.createTarget("Particle Preview", opts.PreviewSize, offscreenFormat); err != nil {
		return nil, err
	}
	if err := p.createSamplers(); err != nil {
		return nil, err
	}
	if err := p.createUniforms(); err != nil {
		return nil, err
	}
	if err := p.createPointPipelines(opts.RenderLayout, opts.RenderWGSL); err != nil {
		return nil, err
	}
	if err := p.createBlitPipelines(); err != nil {
		return nil, err
	}
	if err := p.createPreviewPipeline(); err != nil {
		return nil, err
	}
	if err := p.createBindGroups(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Painter) createTarget(label string, size uint32, format wgpu.TextureFormat) (target, error) {
	tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return target{}, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return target{}, fmt.Errorf("create %s view: %w", label, err)
	}
	return target{texture: tex, view: view, format: format}, nil
}

func (p *Painter) createSamplers() error {
	var err error
	p.linear, err = p.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Linear Clamp",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("linear sampler: %w", err)
	}
	p.compare, err = p.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("comparison sampler: %w", err)
	}
	return nil
}

func (p *Painter) createUniforms() error {
	for _, u := range []struct {
		buf   **wgpu.Buffer
		label string
		size  uint64
	}{
		{&p.screenFrame, "Screen Frame", frameSize},
		{&p.shadowFrame, "Shadow Frame", frameSize},
		{&p.previewBuf, "Preview Light", previewSize},
	} {
		buf, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: u.label,
			Size:  u.size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s buffer: %w", u.label, err)
		}
		*u.buf = buf
	}
	return nil
}

var alphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
	},
	Alpha: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
	},
}

func (p *Painter) createPointPipelines(layout core.Layout, code string) error {
	module, err := p.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Points",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return fmt.Errorf("compile render program: %w", err)
	}

	instances, err := VertexLayout(layout, wgpu.VertexStepModeInstance)
	if err != nil {
		return fmt.Errorf("render layout: %w", err)
	}
	positions, err := layout.Subset("position")
	if err != nil {
		return err
	}
	shadowInstances, err := VertexLayout(positions, wgpu.VertexStepModeInstance)
	if err != nil {
		return fmt.Errorf("shadow layout: %w", err)
	}

	p.pointsPipeline, err = p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Points Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{instances},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    p.surface,
				Blend:     alphaBlend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("points pipeline: %w", err)
	}

	// Depth-only, no fragment stage.
	p.shadowPipeline, err = p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Points Shadow Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_shadow",
			Buffers:    []wgpu.VertexBufferLayout{shadowInstances},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            shadowFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("shadow pipeline: %w", err)
	}
	return nil
}

func (p *Painter) createBlitPipelines() error {
	module, err := p.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Blit",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BlitWGSL},
	})
	if err != nil {
		return fmt.Errorf("compile blit: %w", err)
	}

	// Explicit layout so one bind group per source works with every target format.
	p.blitLayout, err = p.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Blit BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("blit layout: %w", err)
	}
	layout, err := p.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.blitLayout},
	})
	if err != nil {
		return fmt.Errorf("blit pipeline layout: %w", err)
	}

	for _, format := range []wgpu.TextureFormat{offscreenFormat, p.surface} {
		if _, ok := p.blitPipelines[format]; ok {
			continue
		}
		pipeline, err := p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  "Blit Pipeline",
			Layout: layout,
			Vertex: wgpu.VertexState{
				Module:     module,
				EntryPoint: "vs_main",
			},
			Fragment: &wgpu.FragmentState{
				Module:     module,
				EntryPoint: "fs_main",
				Targets: []wgpu.ColorTargetState{{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
				}},
			},
			Primitive: wgpu.PrimitiveState{
				Topology: wgpu.PrimitiveTopologyTriangleList,
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			return fmt.Errorf("blit pipeline: %w", err)
		}
		p.blitPipelines[format] = pipeline
	}
	return nil
}

func (p *Painter) createPreviewPipeline() error {
	module, err := p.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Preview",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PreviewWGSL},
	})
	if err != nil {
		return fmt.Errorf("compile preview: %w", err)
	}
	p.previewPipeline, err = p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Preview Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    offscreenFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("preview pipeline: %w", err)
	}
	return nil
}

func (p *Painter) createBindGroups() error {
	var err error
	p.pointsGroup, err = p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Points BG",
		Layout: p.pointsPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.screenFrame, Size: frameSize},
			{Binding: TextureBinding(core.UnitShadow), TextureView: p.shadow.view},
			{Binding: TextureBinding(core.UnitPreview), TextureView: p.preview.view},
			{Binding: TextureBinding(core.UnitEnvironment), TextureView: p.env.view},
			{Binding: 4, Sampler: p.compare},
			{Binding: 5, Sampler: p.linear},
		},
	})
	if err != nil {
		return fmt.Errorf("points bind group: %w", err)
	}

	p.shadowGroup, err = p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Shadow BG",
		Layout: p.shadowPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.shadowFrame, Size: frameSize},
		},
	})
	if err != nil {
		return fmt.Errorf("shadow bind group: %w", err)
	}

	p.previewGroup, err = p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Preview BG",
		Layout: p.previewPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.previewBuf, Size: previewSize},
		},
	})
	if err != nil {
		return fmt.Errorf("preview bind group: %w", err)
	}

	for name, view := range map[string]*wgpu.TextureView{
		"camera":      p.camera.View,
		"environment": p.env.view,
		"preview":     p.preview.view,
	} {
		p.blitGroups[name], err = p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "Blit " + name,
			Layout: p.blitLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: view},
				{Binding: 1, Sampler: p.linear},
			},
		})
		if err != nil {
			return fmt.Errorf("blit %s bind group: %w", name, err)
		}
	}
	return nil
}

// Frame records draw into one command buffer and submits it. screen may be
// nil when nothing targets the screen.
func (p *Painter) Frame(screen *wgpu.TextureView, draw func(core.Painter)) error {
	encoder, err := p.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	p.encoder, p.screen, p.err = encoder, screen, nil
	defer func() { p.encoder, p.screen, p.pass = nil, nil, nil }()

	draw(p)
	p.endPass()
	return finishFrame(encoder, p.err, func(cmd *wgpu.CommandBuffer) {
		p.queue.Submit(cmd)
		cmd.Release()
	})
}

type frameEncoder interface {
	Finish(descriptor *wgpu.CommandBufferDescriptor) (*wgpu.CommandBuffer, error)
	Release()
}

// finishFrame submits the recorded commands unless drawing failed. The
// encoder is released on every path.
func finishFrame(encoder frameEncoder, drawErr error, submit func(*wgpu.CommandBuffer)) error {
	defer encoder.Release()
	if drawErr != nil {
		return drawErr
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	submit(cmd)
	return nil
}

func (p *Painter) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Painter) targetOf(t core.Target) (*wgpu.TextureView, wgpu.TextureFormat, error) {
	switch t {
	case core.TargetScreen:
		if p.screen == nil {
			return nil, 0, fmt.Errorf("painter: no screen view this frame")
		}
		return p.screen, p.surface, nil
	case core.TargetShadow:
		return p.shadow.view, p.shadow.format, nil
	case core.TargetEnvironment:
		return p.env.view, p.env.format, nil
	case core.TargetPreview:
		return p.preview.view, p.preview.format, nil
	default:
		return nil, 0, fmt.Errorf("painter: unknown target %v", t)
	}
}

func (p *Painter) endPass() {
	if p.pass == nil {
		return
	}
	if err := p.pass.End(); err != nil {
		p.fail(fmt.Errorf("%v pass: %w", p.passTarget, err))
	}
	p.pass = nil
}

// begin returns the open pass for t, starting a new one when the target
// changes or when clear is requested.
func (p *Painter) begin(t core.Target, clear bool) (*wgpu.RenderPassEncoder, wgpu.TextureFormat) {
	view, format, err := p.targetOf(t)
	if err != nil {
		p.fail(err)
		return nil, 0
	}
	if p.encoder == nil {
		p.fail(errNoFrame)
		return nil, 0
	}
	if p.pass != nil && p.passTarget == t && !clear {
		return p.pass, format
	}
	p.endPass()

	load := wgpu.LoadOpLoad
	if clear {
		load = wgpu.LoadOpClear
	}
	desc := &wgpu.RenderPassDescriptor{}
	if t == core.TargetShadow {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     load,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	} else {
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}}
	}
	p.pass = p.encoder.BeginRenderPass(desc)
	p.passTarget = t
	return p.pass, format
}

func (p *Painter) Clear(t core.Target) {
	p.begin(t, true)
}

func (p *Painter) DrawCameraFeed(t core.Target) {
	if t == core.TargetShadow {
		p.fail(fmt.Errorf("painter: camera feed cannot target the shadow map"))
		return
	}
	if p.feed != nil {
		if err := p.camera.Sync(p.feed()); err != nil {
			p.fail(err)
			return
		}
	}
	p.blit(t, "camera")
}

func (p *Painter) DrawTexture(t core.Target, unit core.TextureUnit) {
	switch unit {
	case core.UnitEnvironment:
		p.blit(t, "environment")
	case core.UnitPreview:
		p.blit(t, "preview")
	default:
		p.fail(fmt.Errorf("painter: texture unit %d cannot be drawn as color", unit))
	}
}

func (p *Painter) blit(t core.Target, source string) {
	pass, format := p.begin(t, false)
	if pass == nil {
		return
	}
	pipeline, ok := p.blitPipelines[format]
	if !ok {
		p.fail(fmt.Errorf("painter: no blit pipeline for %v", t))
		return
	}
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, p.blitGroups[source], nil)
	pass.Draw(3, 1, 0, 0)
}

func (p *Painter) DrawPoints(t core.Target, binding core.Binding, count int, u *core.PointUniforms) {
	if binding.Buffer < 0 || binding.Buffer > 1 || count > p.buffers.Count {
		p.fail(fmt.Errorf("painter: %d points from buffer %d", count, binding.Buffer))
		return
	}

	var pipeline *wgpu.RenderPipeline
	var group *wgpu.BindGroup
	switch t {
	case core.TargetShadow:
		p.queue.WriteBuffer(p.shadowFrame, 0, frameBytes(u))
		pipeline, group = p.shadowPipeline, p.shadowGroup
	case core.TargetScreen:
		p.queue.WriteBuffer(p.screenFrame, 0, frameBytes(u))
		pipeline, group = p.pointsPipeline, p.pointsGroup
	default:
		p.fail(fmt.Errorf("painter: points cannot target %v", t))
		return
	}

	pass, _ := p.begin(t, false)
	if pass == nil {
		return
	}
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, group, nil)
	pass.SetVertexBuffer(0, p.buffers.Buffers[binding.Buffer], 0, wgpu.WholeSize)
	pass.Draw(6, uint32(count), 0, 0)
}

func (p *Painter) DrawPreviewSphere(t core.Target, light mgl32.Vec3) {
	pass, format := p.begin(t, false)
	if pass == nil {
		return
	}
	if format != offscreenFormat {
		p.fail(fmt.Errorf("painter: preview sphere cannot target %v", t))
		return
	}
	p.queue.WriteBuffer(p.previewBuf, 0, previewBytes(light))
	pass.SetPipeline(p.previewPipeline)
	pass.SetBindGroup(0, p.previewGroup, nil)
	pass.Draw(3, 1, 0, 0)
}

func (p *Painter) Release() {
	for _, t := range []target{p.shadow, p.env, p.preview} {
		if t.view != nil {
			t.view.Release()
		}
		if t.texture != nil {
			t.texture.Release()
		}
	}
	for _, buf := range []*wgpu.Buffer{p.screenFrame, p.shadowFrame, p.previewBuf} {
		if buf != nil {
			buf.Release()
		}
	}
	for _, smp := range []*wgpu.Sampler{p.linear, p.compare} {
		if smp != nil {
			smp.Release()
		}
	}
}
