package swarm

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/gekko3d/swarm/fxrt/rt/core"
	"github.com/gekko3d/swarm/fxrt/rt/shaders"
)

// ParticleState is the simulation side of the App: the store and its binding
// table, the stepper once a backend is bound, and the frame pipeline.
type ParticleState struct {
	Config       Config
	Program      shaders.Program
	Layout       core.Layout
	RenderLayout core.Layout
	Table        core.BindingTable
	Count        int
	Progress     core.Progress
	Preview      core.PreviewPass
	Pipeline     *core.Pipeline
	Stats        core.FrameStats

	buffers *core.DoubleBuffer
	seeded  []byte
	cpu     core.Feedback
	policy  core.TriggerPolicy
	seed    float32
	backend string
}

// Seeded returns a copy of buffer 0 as seeded at startup, for device upload.
func (ps *ParticleState) Seeded() []byte { return ps.seeded }

// CPU returns the reference backend running the kernels on the host store.
func (ps *ParticleState) CPU() core.Feedback { return ps.cpu }

func (ps *ParticleState) Backend() string { return ps.backend }

func (ps *ParticleState) Bound() bool { return ps.Pipeline != nil }

// Bind attaches a feedback backend and assembles the frame pipeline. It can
// be called once.
func (ps *ParticleState) Bind(name string, backend core.Feedback, session core.Session) error {
	if ps.Pipeline != nil {
		return fmt.Errorf("particles already bound to %s", ps.backend)
	}
	stepper, err := core.NewStepper(ps.buffers, ps.Table, ps.Count, backend, ps.Progress, ps.seed)
	if err != nil {
		return core.Fatal(err)
	}
	if ps.Program.Init != "" {
		stepper.AwaitInit()
	}
	light := ps.Config.LightCamera()
	scale := ps.Config.VariantModelScale()
	pipeline := &core.Pipeline{
		Stepper: stepper,
		Shadow: core.ShadowPass{
			Light:      light,
			Size:       ps.Config.ShadowMapSize,
			ModelScale: scale,
		},
		Compositor: core.NewCompositor(scale, light),
		Session:    session,
		Policy:     ps.policy,
	}
	if err := pipeline.Validate(); err != nil {
		return core.Fatal(err)
	}
	ps.Pipeline = pipeline
	ps.backend = name
	return nil
}

type ParticlesModule struct {
	Config Config
	// Rand seeds the store and the time offset. Nil means a source seeded
	// from Config.Seed, or the clock when that is zero.
	Rand *rand.Rand
}

func (m ParticlesModule) Install(app *App, cmd *Commands) {
	state, err := newParticleState(m.Config, m.rng(), debugLogf(app.Logger()))
	if err != nil {
		cmd.Fail(core.Fatal(err))
		return
	}
	app.Logger().Infof("Particles: %s, %d records of %d bytes", state.Program.Name, state.Count, state.Layout.Stride)
	cmd.AddResources(state)

	app.UseSystem(
		System(triggerSystem).
			InStage(PreUpdate).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(stepSystem).
			InStage(Update).
			InState(OnExecute(StateRunning)),
	)
}

func (m ParticlesModule) rng() *rand.Rand {
	if m.Rand != nil {
		return m.Rand
	}
	seed := m.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func newParticleState(cfg Config, rng *rand.Rand, logf core.Logf) (*ParticleState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	program, err := shaders.Lookup(cfg.Variant)
	if err != nil {
		return nil, err
	}

	ps := &ParticleState{
		Config:  cfg,
		Program: program,
		Count:   cfg.ParticleCount(),
		Preview: core.PreviewPass{Light: cfg.LightCamera().Position},
		seed:    rng.Float32() * 1000,
	}

	switch cfg.Variant {
	case "blackhole":
		toggle := core.NewToggle(cfg.RampStep, cfg.TriggerThreshold)
		ps.Progress = toggle
		ps.policy = &core.ToggleAnchors{Toggle: toggle, Offset: cfg.Offset(), Logf: logf}
		err = setupStore(ps, core.BlackHoleParticle{}, core.BlackHoleRenderFields, core.RingSeed, core.BlackHoleUpdate, nil, rng)
	case "pixelated":
		ease := core.NewEaseNumber(0, cfg.Easing)
		ps.Progress = ease
		ps.policy = &core.OpenOnTrigger{Ease: ease, Offset: cfg.Offset(), Reinit: ps.reinit, Logf: logf}
		err = setupStore(ps, core.PixelParticle{}, core.PixelRenderFields, core.DiskSeed, core.PixelUpdate, core.PixelInit, rng)
	case "entrainment":
		ease := core.NewEaseNumber(0, cfg.Easing)
		ps.Progress = ease
		ps.policy = &core.OpenOnTrigger{Ease: ease, Offset: cfg.Offset(), Logf: logf}
		err = setupStore(ps, core.PixelParticle{}, core.PixelRenderFields, core.GridSeed(cfg.NumParticles), core.EntrainmentUpdate, nil, rng)
	default:
		err = fmt.Errorf("%w: %q", shaders.ErrUnknownProgram, cfg.Variant)
	}
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func setupStore[P any](ps *ParticleState, record P, renderFields []string, seed core.SeedFunc[P], update, init core.Kernel[P], rng *rand.Rand) error {
	layout, err := core.LayoutOf(record)
	if err != nil {
		return err
	}
	render, err := layout.Subset(renderFields...)
	if err != nil {
		return err
	}
	if err := core.CheckShared(layout, render); err != nil {
		return err
	}
	store, err := core.NewStore(ps.Count, seed, rng)
	if err != nil {
		return err
	}

	ps.Layout = layout
	ps.RenderLayout = render
	ps.Table = core.NewBindingTable(layout)
	ps.buffers = &store.DoubleBuffer
	ps.seeded = slices.Clone(store.Bytes(0))
	ps.cpu = core.NewCPUFeedback(store, update, init)
	return nil
}

// reinit reseeds particle colors from the camera frame, with the particles
// placed exactly where the compositor will draw them around anchor a.
func (ps *ParticleState) reinit(a core.Anchor) error {
	if ps.Pipeline == nil {
		return nil
	}
	s := ps.Pipeline.Session
	frame, _ := s.CameraFrame()
	return ps.Pipeline.Stepper.Init(&core.Uniforms{
		Model:      ps.Pipeline.Compositor.Placement(a),
		View:       s.ViewMatrix(),
		Projection: s.ProjectionMatrix(),
		Camera:     frame,
	})
}

func triggerSystem(state *ParticleState, input *Input, cmd *Commands) {
	if !state.Bound() {
		return
	}
	for n := input.consumeTriggers(); n > 0; n-- {
		if _, err := state.Pipeline.Trigger(); err != nil {
			cmd.Fail(err)
			return
		}
	}
}

func stepSystem(state *ParticleState, t *Time, cmd *Commands) {
	if !state.Bound() {
		return
	}
	if err := state.Pipeline.Update(t.Seconds()); err != nil {
		cmd.Fail(err)
	}
}
