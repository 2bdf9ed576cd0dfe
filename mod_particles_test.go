package swarm

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/gekko3d/swarm/fxrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlessApp(t *testing.T, cfg Config, mod HeadlessModule) *App {
	t.Helper()
	app := NewAppBuilder().
		UseStates(StateRunning, StateQuit).
		UseModule(
			TimeModule{FixedDt: time.Second / 60},
			SessionModule{Config: cfg},
			ParticlesModule{Config: cfg, Rand: rand.New(rand.NewSource(42))},
		).
		Build()
	require.NoError(t, app.Err())
	app.UseHeadless(mod)
	require.NoError(t, app.Err())
	return app
}

type feedbackFunc func(prog core.Program, src, dst int, u *core.Uniforms) error

func (f feedbackFunc) Transform(prog core.Program, src, dst int, u *core.Uniforms) error {
	return f(prog, src, dst, u)
}

func TestNewParticleStateVariants(t *testing.T) {
	for _, tc := range []struct {
		variant string
		stride  uint64
		count   int
		init    bool
	}{
		{"blackhole", 52, 80, false},
		{"pixelated", 60, 80, true},
		{"entrainment", 60, 6400, false},
	} {
		t.Run(tc.variant, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Variant = tc.variant
			ps, err := newParticleState(cfg, rand.New(rand.NewSource(1)), nil)
			require.NoError(t, err)

			assert.Equal(t, tc.stride, ps.Layout.Stride)
			assert.Equal(t, tc.count, ps.Count)
			assert.Len(t, ps.Seeded(), tc.count*int(tc.stride))
			assert.Equal(t, tc.init, ps.Program.Init != "")
			assert.NoError(t, ps.Table.Verify())
			assert.NoError(t, core.CheckShared(ps.Layout, ps.RenderLayout))
			assert.False(t, ps.Bound())
		})
	}
}

func TestParticleStateBindOnce(t *testing.T) {
	ps, err := newParticleState(DefaultConfig(), rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	session := core.NewSimSession(core.SimSessionOptions{})

	require.NoError(t, ps.Bind("cpu", ps.CPU(), session))
	assert.True(t, ps.Bound())
	assert.Equal(t, "cpu", ps.Backend())
	assert.Error(t, ps.Bind("cpu", ps.CPU(), session))
}

func TestHeadlessBlackHoleToggleCycle(t *testing.T) {
	cfg := DefaultConfig()
	app := headlessApp(t, cfg, HeadlessModule{MaxFrames: 10, TriggerAt: []uint64{2, 5, 8}})

	require.NoError(t, app.Run())
	assert.Equal(t, StateQuit, app.State())

	particles, ok := Resource[ParticleState](app)
	require.True(t, ok)
	session, ok := Resource[core.SimSession](app)
	require.True(t, ok)
	headless, ok := Resource[HeadlessState](app)
	require.True(t, ok)

	assert.Equal(t, uint64(10), particles.Pipeline.Stepper.Ticks())
	assert.Equal(t, uint64(10), headless.Frames)

	// Third tap exceeds the threshold: one anchor left, counter back to 1.
	assert.Len(t, session.Anchors(), 1)
	toggle := particles.Progress.(*core.Toggle)
	assert.Equal(t, 1, toggle.Triggers())
	assert.InDelta(t, 2*cfg.RampStep, toggle.Value(), 1e-6)

	points := headless.Recorder.Find(core.OpPoints, core.TargetScreen)
	require.Len(t, points, 1)
	assert.Equal(t, particles.Count, points[0].Count)
	assert.Equal(t, particles.Pipeline.Stepper.Source(), points[0].Binding.Buffer)
	assert.Equal(t, core.FrameStats{Anchors: 1, Particles: particles.Count}, particles.Stats)
}

func TestHeadlessWithoutTriggersShowsEnvironment(t *testing.T) {
	app := headlessApp(t, DefaultConfig(), HeadlessModule{MaxFrames: 3})
	require.NoError(t, app.Run())

	headless, _ := Resource[HeadlessState](app)
	assert.Empty(t, headless.Recorder.Find(core.OpPoints, core.TargetScreen))
	assert.Len(t, headless.Recorder.Find(core.OpTexture, core.TargetScreen), 1)
}

func TestHeadlessPixelatedReinitOnTap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = "pixelated"
	app := headlessApp(t, cfg, HeadlessModule{MaxFrames: 4, TriggerAt: []uint64{1}})
	require.NoError(t, app.Run())

	particles, _ := Resource[ParticleState](app)
	session, _ := Resource[core.SimSession](app)
	ease := particles.Progress.(*core.EaseNumber)

	assert.Len(t, session.Anchors(), 1)
	assert.Equal(t, float32(1), ease.Target())
	assert.Greater(t, ease.Value(), float32(0))
	// No update before the first init: frame 0 idles, frames 1-3 tick.
	// Init plus three updates is four swaps.
	assert.Equal(t, uint64(3), particles.Pipeline.Stepper.Ticks())
	assert.Equal(t, 0, particles.Pipeline.Stepper.Source())
}

func TestPixelatedReinitMatchesComposite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = "pixelated"
	ps, err := newParticleState(cfg, rand.New(rand.NewSource(3)), nil)
	require.NoError(t, err)
	session := core.NewSimSession(core.SimSessionOptions{})

	var inits []core.Uniforms
	backend := feedbackFunc(func(prog core.Program, src, dst int, u *core.Uniforms) error {
		if prog == core.ProgramInit {
			inits = append(inits, *u)
		}
		return ps.CPU().Transform(prog, src, dst, u)
	})
	require.NoError(t, ps.Bind("cpu", backend, session))
	assert.False(t, ps.Pipeline.Stepper.Ready())

	_, err = ps.Pipeline.Trigger()
	require.NoError(t, err)
	session.Orbit(300, 0)
	_, err = ps.Pipeline.Trigger()
	require.NoError(t, err)
	require.Len(t, inits, 2)

	rec := &core.Recorder{}
	ps.Pipeline.Draw(rec, [2]float32{640, 480})
	points := rec.Find(core.OpPoints, core.TargetScreen)
	require.Len(t, points, 1)
	u := points[0].Uniforms

	anchors := session.Anchors()
	require.Len(t, anchors, 1)
	assert.Equal(t, anchors[0].Transform, u.Translate)
	assert.Equal(t, mgl32.Ident4(), u.Model, "the pixel disk is drawn at world scale")
	assert.Equal(t, u.Translate.Mul4(u.Model), inits[1].Model)
	assert.Equal(t, session.ViewMatrix(), inits[1].View)
}

func TestSeededIsASnapshot(t *testing.T) {
	ps, err := newParticleState(DefaultConfig(), rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	seeded := slices.Clone(ps.Seeded())
	session := core.NewSimSession(core.SimSessionOptions{})
	require.NoError(t, ps.Bind("cpu", ps.CPU(), session))

	_, err = ps.Pipeline.Trigger()
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.NoError(t, ps.Pipeline.Update(float64(i)))
	}
	assert.Equal(t, seeded, ps.Seeded())
}

func TestHeadlessEntrainmentKeepsNewestAnchor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = "entrainment"
	cfg.NumParticles = 8
	app := headlessApp(t, cfg, HeadlessModule{MaxFrames: 6, TriggerAt: []uint64{0, 2, 4}})
	require.NoError(t, app.Run())

	session, _ := Resource[core.SimSession](app)
	particles, _ := Resource[ParticleState](app)
	assert.Len(t, session.Anchors(), 1)
	assert.Equal(t, 64, particles.Stats.Particles)
	assert.Equal(t, uint64(6), particles.Pipeline.Stepper.Ticks())
}

func TestHeadlessPreviewRunsOnce(t *testing.T) {
	app := headlessApp(t, DefaultConfig(), HeadlessModule{MaxFrames: 3})
	require.NoError(t, app.Run())

	headless, _ := Resource[HeadlessState](app)
	assert.Len(t, headless.Preview.Find(core.OpSphere, core.TargetPreview), 1)
	assert.Empty(t, headless.Recorder.Find(core.OpSphere, core.TargetPreview))
}

func TestHeadlessNeedsParticles(t *testing.T) {
	app := NewAppBuilder().UseStates(StateRunning, StateQuit).Build()
	app.UseHeadless(HeadlessModule{})
	assert.ErrorIs(t, app.Err(), core.ErrFatal)
}
