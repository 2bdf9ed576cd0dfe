package swarm

import (
	"slices"

	"github.com/gekko3d/swarm/fxrt/rt/core"
)

// HeadlessModule runs the pipeline on the CPU backend and records draw calls
// instead of rendering. It needs no window or device.
type HeadlessModule struct {
	// MaxFrames stops the App after that many frames. Zero runs until stopped.
	MaxFrames uint64
	// TriggerAt lists the frames, counted from 0, at which a tap is synthesized.
	TriggerAt []uint64
	// StatsEvery logs frame stats every N frames. Zero disables it.
	StatsEvery uint64
	Viewport   [2]float32
}

type HeadlessState struct {
	Recorder *core.Recorder
	// Preview holds the calls of the one-off preview pass.
	Preview   *core.Recorder
	Viewport  [2]float32
	MaxFrames uint64
	TriggerAt []uint64
	every     uint64
	// Frames counts frames drawn.
	Frames uint64
}

func (mod HeadlessModule) Install(app *App, cmd *Commands) {
	particles, okParticles := Resource[ParticleState](app)
	session, okSession := Resource[core.SimSession](app)
	if !okParticles || !okSession {
		cmd.Fail(core.Fatal(errMissingParticles))
		return
	}
	if err := particles.Bind(string(RendererHeadless), particles.CPU(), session); err != nil {
		cmd.Fail(err)
		return
	}

	if _, ok := Resource[Input](app); !ok {
		cmd.AddResources(&Input{})
	}

	viewport := mod.Viewport
	if viewport == [2]float32{} {
		viewport = [2]float32{float32(particles.Config.Window.Width), float32(particles.Config.Window.Height)}
	}
	cmd.AddResources(&HeadlessState{
		Recorder:  &core.Recorder{},
		Preview:   &core.Recorder{},
		Viewport:  viewport,
		MaxFrames: mod.MaxFrames,
		TriggerAt: slices.Clone(mod.TriggerAt),
		every:     mod.StatsEvery,
	})
	app.Logger().Infof("Headless: CPU feedback, %d particles", particles.Count)

	app.UseSystem(
		System(headlessPreviewSystem).
			InStage(Render).
			InState(OnEnter(StateRunning)),
	)
	app.UseSystem(
		System(headlessTriggerSystem).
			InStage(Prelude).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(headlessRenderSystem).
			InStage(Render).
			InState(OnExecute(StateRunning)),
	)
}

func headlessPreviewSystem(state *HeadlessState, particles *ParticleState) {
	particles.Preview.Render(state.Preview)
}

func headlessTriggerSystem(state *HeadlessState, input *Input) {
	if slices.Contains(state.TriggerAt, state.Frames) {
		input.Trigger()
	}
}

func headlessRenderSystem(state *HeadlessState, particles *ParticleState, cmd *Commands) {
	if !particles.Bound() {
		return
	}
	state.Recorder.Reset()
	particles.Stats = particles.Pipeline.Draw(state.Recorder, state.Viewport)
	state.Frames++

	if state.every > 0 && state.Frames%state.every == 0 {
		cmd.app.Logger().Infof("frame %d: ticks %d, anchors %d, points %d, offset %.3f",
			state.Frames, particles.Pipeline.Stepper.Ticks(), particles.Stats.Anchors,
			particles.Stats.Particles, particles.Progress.Value())
	}
	if state.MaxFrames > 0 && state.Frames >= state.MaxFrames {
		cmd.Quit()
	}
}

// UseHeadless selects the recording renderer.
func (app *App) UseHeadless(mod HeadlessModule) *App {
	return app.UseRenderer(RendererHeadless, mod)
}
