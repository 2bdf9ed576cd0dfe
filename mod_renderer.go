package swarm

import (
	"errors"
	"time"

	app_rt "github.com/gekko3d/swarm/fxrt/rt/app"
	"github.com/gekko3d/swarm/fxrt/rt/core"
)

var errMissingParticles = errors.New("renderer needs ParticlesModule and SessionModule installed first")

// FeedbackRendererModule runs the feedback step on the GPU and draws the
// auxiliary passes and the composite into the window surface.
type FeedbackRendererModule struct {
	Debug bool
	// StatsInterval is how often profiler stats are logged in debug mode.
	StatsInterval time.Duration
}

type RendererState struct {
	RtApp     *app_rt.App
	Debug     bool
	interval  time.Duration
	lastStats time.Time
}

func (s *RendererState) FPS() float64 { return s.RtApp.FPS }

func (s *RendererState) ProfilerStats() string { return s.RtApp.Profiler.GetStatsString() }

func (mod FeedbackRendererModule) Install(app *App, cmd *Commands) {
	ws, okWindow := Resource[WindowState](app)
	particles, okParticles := Resource[ParticleState](app)
	session, okSession := Resource[core.SimSession](app)
	if !okWindow || !okParticles || !okSession {
		cmd.Fail(core.Fatal(errMissingParticles))
		return
	}

	rt := app_rt.NewApp(ws.Window())
	cfg := particles.Config
	frame, _ := session.CameraFrame()
	feedW, feedH := frame.Bounds().Dx(), frame.Bounds().Dy()
	err := rt.Init(app_rt.Setup{
		Program:      particles.Program,
		Layout:       particles.Layout,
		RenderLayout: particles.RenderLayout,
		Seeded:       particles.Seeded(),
		Count:        particles.Count,
		FeedWidth:    feedW,
		FeedHeight:   feedH,
		Feed:         session.CameraFrame,
		ShadowSize:   uint32(cfg.ShadowMapSize),
		EnvSize:      uint32(cfg.EnvMapSize),
		PreviewSize:  uint32(cfg.PreviewSize),
	})
	if err != nil {
		rt.Release()
		cmd.Fail(err)
		return
	}
	if err := particles.Bind(string(RendererWGPU), rt.Feedback, session); err != nil {
		rt.Release()
		cmd.Fail(err)
		return
	}
	particles.Pipeline.Trace = rt.Profiler.Scope

	interval := mod.StatsInterval
	if interval <= 0 {
		interval = time.Second
	}
	cmd.AddResources(&RendererState{RtApp: rt, Debug: mod.Debug, interval: interval})
	app.Logger().Infof("GPU feedback bound: %d particles, surface %v", particles.Count, rt.Config.Format)

	app.UseSystem(
		System(previewRenderSystem).
			InStage(PreRender).
			InState(OnEnter(StateRunning)),
	)
	app.UseSystem(
		System(surfaceResizeSystem).
			InStage(PreRender).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(feedbackRenderSystem).
			InStage(Render).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(rendererStatsSystem).
			InStage(PostRender).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(rendererReleaseSystem).
			InStage(Render).
			InState(OnExit(StateQuit)),
	)
}

// previewRenderSystem draws the particle sprite once, before the first frame.
func previewRenderSystem(state *RendererState, particles *ParticleState, cmd *Commands) {
	if err := state.RtApp.RenderOffscreen(particles.Preview.Render); err != nil {
		cmd.Fail(core.Fatal(err))
	}
}

func surfaceResizeSystem(state *RendererState, input *Input, session *core.SimSession) {
	w, h := input.FramebufferWidth, input.FramebufferHeight
	if w <= 0 || h <= 0 {
		return
	}
	cfg := state.RtApp.Config
	if uint32(w) != cfg.Width || uint32(h) != cfg.Height {
		state.RtApp.Resize(w, h)
		session.SetAspect(float32(w) / float32(h))
	}
}

func feedbackRenderSystem(state *RendererState, particles *ParticleState, cmd *Commands) {
	if !particles.Bound() {
		return
	}
	viewport := state.RtApp.Viewport()
	err := state.RtApp.Render(func(p core.Painter) {
		particles.Stats = particles.Pipeline.Draw(p, viewport)
	})
	if err != nil {
		cmd.Fail(core.Fatal(err))
		return
	}
	state.RtApp.Profiler.SetCount("Particles", particles.Stats.Particles)
	state.RtApp.Profiler.SetCount("Anchors", particles.Stats.Anchors)
}

func rendererStatsSystem(state *RendererState, t *Time, cmd *Commands) {
	if !state.Debug || t.Time.Sub(state.lastStats) < state.interval {
		return
	}
	state.lastStats = t.Time
	cmd.app.Logger().Debugf("FPS %.1f\n%s", state.FPS(), state.ProfilerStats())
}

func rendererReleaseSystem(state *RendererState) {
	state.RtApp.Release()
}
