package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/swarm/fxrt/rt/core"
)

const workgroupSize = 64

type computeProgram struct {
	pipeline *wgpu.ComputePipeline
	// groups[src] reads buffer src and writes buffer 1-src.
	groups [2]*wgpu.BindGroup
}

// FeedbackPass runs the update and init programs as compute dispatches over
// the particle buffers. Both bind groups of each program are built once.
type FeedbackPass struct {
	device   *wgpu.Device
	queue    *wgpu.Queue
	buffers  *ParticleBuffers
	camera   *CameraTexture
	sampler  *wgpu.Sampler
	params   *wgpu.Buffer
	programs map[core.Program]*computeProgram
}

// NewFeedbackPass compiles the update program, and the init program when
// initWGSL is not empty, with the layout prelude prepended.
func NewFeedbackPass(device *wgpu.Device, buffers *ParticleBuffers, camera *CameraTexture, layout core.Layout, updateWGSL, initWGSL string) (*FeedbackPass, error) {
	if layout.Stride != buffers.Stride {
		return nil, fmt.Errorf("feedback: %w: layout stride %d, buffer stride %d", core.ErrLayoutMismatch, layout.Stride, buffers.Stride)
	}

	f := &FeedbackPass{
		device:   device,
		queue:    device.GetQueue(),
		buffers:  buffers,
		camera:   camera,
		programs: make(map[core.Program]*computeProgram),
	}

	var err error
	f.params, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Feedback Params",
		Size:  paramsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("feedback params: %w", err)
	}
	f.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("feedback sampler: %w", err)
	}

	prelude := Prelude(layout)
	if err := f.compile(core.ProgramUpdate, prelude+updateWGSL); err != nil {
		return nil, err
	}
	if initWGSL != "" {
		if camera == nil {
			return nil, fmt.Errorf("feedback: init program needs a camera texture")
		}
		if err := f.compile(core.ProgramInit, prelude+initWGSL); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *FeedbackPass) compile(prog core.Program, code string) error {
	module, err := f.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Feedback " + prog.String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return fmt.Errorf("compile %s program: %w", prog, err)
	}

	// Layout auto
	pipeline, err := f.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Feedback " + prog.String(),
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return fmt.Errorf("link %s program: %w", prog, err)
	}

	cp := &computeProgram{pipeline: pipeline}
	for src := 0; src < 2; src++ {
		dst := 1 - src
		entries := []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: f.buffers.Buffers[src], Size: f.buffers.Size()},
			{Binding: 1, Buffer: f.buffers.Buffers[dst], Size: f.buffers.Size()},
			{Binding: 2, Buffer: f.params, Size: paramsSize},
		}
		if prog == core.ProgramInit {
			entries = append(entries,
				wgpu.BindGroupEntry{Binding: 3, TextureView: f.camera.View},
				wgpu.BindGroupEntry{Binding: 4, Sampler: f.sampler},
			)
		}
		cp.groups[src], err = f.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("Feedback %s %d->%d", prog, src, dst),
			Layout:  pipeline.GetBindGroupLayout(0),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("%s bind group %d->%d: %w", prog, src, dst, err)
		}
	}
	f.programs[prog] = cp
	return nil
}

// Transform dispatches one program over every record and submits it.
func (f *FeedbackPass) Transform(prog core.Program, src, dst int, u *core.Uniforms) error {
	cp, ok := f.programs[prog]
	if !ok {
		return fmt.Errorf("feedback: no %s program", prog)
	}
	if src < 0 || src > 1 || dst != 1-src {
		return fmt.Errorf("feedback: invalid buffer pair %d->%d", src, dst)
	}
	if int(u.Count) != f.buffers.Count {
		return fmt.Errorf("%w: uniforms %d, buffers %d", core.ErrCountMismatch, u.Count, f.buffers.Count)
	}
	if prog == core.ProgramInit && u.Camera != nil {
		if err := f.camera.Write(u.Camera); err != nil {
			return err
		}
	}

	f.queue.WriteBuffer(f.params, 0, paramsBytes(u))

	encoder, err := f.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(cp.pipeline)
	pass.SetBindGroup(0, cp.groups[src], nil)
	pass.DispatchWorkgroups((uint32(f.buffers.Count)+workgroupSize-1)/workgroupSize, 1, 1)
	if err := pass.End(); err != nil {
		return fmt.Errorf("%s pass: %w", prog, err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	f.queue.Submit(cmd)
	return nil
}

func (f *FeedbackPass) Release() {
	if f.params != nil {
		f.params.Release()
	}
	if f.sampler != nil {
		f.sampler.Release()
	}
}
