package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlackHoleStepper(t *testing.T, count int, backend func(*Store[BlackHoleParticle]) Feedback) (*Stepper, *Store[BlackHoleParticle], *Toggle) {
	t.Helper()
	store, err := NewStore(count, RingSeed, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	layout, err := LayoutOf(BlackHoleParticle{})
	require.NoError(t, err)

	toggle := NewToggle(0.005, 2)
	stepper, err := NewStepper(&store.DoubleBuffer, NewBindingTable(layout), count, backend(store), toggle, 12.5)
	require.NoError(t, err)
	return stepper, store, toggle
}

func cpuBackend(store *Store[BlackHoleParticle]) Feedback {
	return NewCPUFeedback(store, BlackHoleUpdate, nil)
}

func TestStepper_ParityAndCount(t *testing.T) {
	stepper, store, toggle := newBlackHoleStepper(t, 32, cpuBackend)
	toggle.Trigger()

	for tick := 0; tick < 25; tick++ {
		assert.Equal(t, tick%2, stepper.Source())
		assert.Equal(t, 1-tick%2, stepper.Destination())
		assert.Equal(t, stepper.Source(), store.Source())

		require.NoError(t, stepper.Step(float64(tick)/60))
		assert.Len(t, store.Buffer(0), 32)
		assert.Len(t, store.Buffer(1), 32)
		assert.Equal(t, StepIdle, stepper.State())
	}
	assert.Equal(t, uint64(25), stepper.Ticks())
	assert.Equal(t, 1, stepper.Binding().Buffer)
}

func TestStepper_WritesDestination(t *testing.T) {
	stepper, store, _ := newBlackHoleStepper(t, 8, cpuBackend)

	require.NoError(t, stepper.Step(0))
	assert.Equal(t, 1, stepper.Source())
	for i, p := range store.Buffer(1) {
		assert.Equal(t, store.Buffer(0)[i].Origin, p.Origin)
		assert.NotZero(t, p.Life)
	}
}

type funcFeedback func(prog Program, src, dst int, u *Uniforms) error

func (f funcFeedback) Transform(prog Program, src, dst int, u *Uniforms) error {
	return f(prog, src, dst, u)
}

func TestStepper_Uniforms(t *testing.T) {
	var got Uniforms
	stepper, _, toggle := newBlackHoleStepper(t, 4, func(*Store[BlackHoleParticle]) Feedback {
		return funcFeedback(func(_ Program, _, _ int, u *Uniforms) error {
			got = *u
			return nil
		})
	})
	toggle.Trigger()
	toggle.Trigger()

	require.NoError(t, stepper.Step(2))
	assert.Equal(t, float32(14.5), got.Time)
	assert.InDelta(t, 0.005, got.Offset, 1e-6)
	assert.Equal(t, float32(1), got.Closing)
	assert.Equal(t, uint32(4), got.Count)
}

func TestStepper_Reentry(t *testing.T) {
	var stepper *Stepper
	var inner error
	stepper, _, _ = newBlackHoleStepper(t, 4, func(*Store[BlackHoleParticle]) Feedback {
		return funcFeedback(func(Program, int, int, *Uniforms) error {
			assert.Equal(t, StepStepping, stepper.State())
			inner = stepper.Step(1)
			return nil
		})
	})

	require.NoError(t, stepper.Step(0))
	assert.ErrorIs(t, inner, ErrReentrantStep)
	assert.Equal(t, 1, stepper.Source())
}

func TestStepper_BackendFailureIsFatal(t *testing.T) {
	lost := errors.New("device lost")
	stepper, _, _ := newBlackHoleStepper(t, 4, func(*Store[BlackHoleParticle]) Feedback {
		return funcFeedback(func(Program, int, int, *Uniforms) error { return lost })
	})

	err := stepper.Step(0)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, lost)
	assert.Equal(t, 0, stepper.Source(), "failed tick must not swap")
	assert.Zero(t, stepper.Ticks())
}

func TestStepper_InitProgram(t *testing.T) {
	store, err := NewStore(16, DiskSeed, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	layout, err := LayoutOf(PixelParticle{})
	require.NoError(t, err)

	stepper, err := NewStepper(&store.DoubleBuffer, NewBindingTable(layout), 16,
		NewCPUFeedback(store, PixelUpdate, PixelInit), NewEaseNumber(0, 0.025), 0)
	require.NoError(t, err)

	require.NoError(t, stepper.Init(&Uniforms{}))
	assert.Equal(t, 1, stepper.Source())
	assert.Equal(t, store.Buffer(0), store.Buffer(1))
	assert.Zero(t, stepper.Ticks())
}

func TestStepper_AwaitInit(t *testing.T) {
	store, err := NewStore(8, DiskSeed, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	layout, err := LayoutOf(PixelParticle{})
	require.NoError(t, err)
	ease := NewEaseNumber(0, 0.5)
	ease.Open()

	stepper, err := NewStepper(&store.DoubleBuffer, NewBindingTable(layout), 8,
		NewCPUFeedback(store, PixelUpdate, PixelInit), ease, 0)
	require.NoError(t, err)
	stepper.AwaitInit()
	assert.False(t, stepper.Ready())

	require.NoError(t, stepper.Step(0))
	assert.Zero(t, stepper.Ticks())
	assert.Equal(t, 0, stepper.Source())
	assert.Equal(t, float32(0.5), ease.Value(), "progress advances while waiting")

	require.NoError(t, stepper.Init(&Uniforms{}))
	assert.True(t, stepper.Ready())
	require.NoError(t, stepper.Step(0))
	assert.Equal(t, uint64(1), stepper.Ticks())
	assert.Equal(t, 0, stepper.Source())
}

func TestCPUFeedback_Errors(t *testing.T) {
	store, err := NewStore(4, RingSeed, nil)
	require.NoError(t, err)
	f := NewCPUFeedback(store, BlackHoleUpdate, nil)

	assert.Error(t, f.Transform(ProgramInit, 0, 1, &Uniforms{}))
	assert.Error(t, f.Transform(ProgramUpdate, 1, 1, &Uniforms{}))
}

func TestNewStepper_Invalid(t *testing.T) {
	layout, err := LayoutOf(BlackHoleParticle{})
	require.NoError(t, err)
	table := NewBindingTable(layout)
	var d DoubleBuffer
	backend := funcFeedback(func(Program, int, int, *Uniforms) error { return nil })

	_, err = NewStepper(&d, table, 0, backend, NewToggle(0.1, 2), 0)
	assert.Error(t, err)

	_, err = NewStepper(nil, table, 4, backend, NewToggle(0.1, 2), 0)
	assert.Error(t, err)

	table[1].Buffer = 0
	_, err = NewStepper(&d, table, 4, backend, NewToggle(0.1, 2), 0)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}
