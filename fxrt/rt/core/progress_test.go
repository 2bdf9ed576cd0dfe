package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggle_IdleUntilTriggered(t *testing.T) {
	toggle := NewToggle(0.005, 2)
	for i := 0; i < 10; i++ {
		toggle.Update()
	}
	assert.Zero(t, toggle.Value())
	assert.False(t, toggle.Closing())
}

func TestToggle_RampIsMonotonicAndClamped(t *testing.T) {
	toggle := NewToggle(0.005, 2)
	toggle.Trigger()

	prev := toggle.Value()
	for i := 0; i < 1000; i++ {
		toggle.Update()
		v := toggle.Value()
		assert.GreaterOrEqual(t, v, prev)
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
		prev = v
	}
	assert.Equal(t, float32(1), toggle.Value())
}

func TestToggle_ThresholdReset(t *testing.T) {
	toggle := NewToggle(0.1, 2)

	assert.False(t, toggle.Trigger())
	assert.Equal(t, 1, toggle.Triggers())
	assert.False(t, toggle.Closing())
	toggle.Update()
	toggle.Update()

	assert.False(t, toggle.Trigger())
	assert.Equal(t, 2, toggle.Triggers())
	assert.True(t, toggle.Closing())

	assert.True(t, toggle.Trigger())
	assert.Equal(t, 1, toggle.Triggers())
	assert.Zero(t, toggle.Value())
	assert.False(t, toggle.Closing())
}

func TestEaseNumber_Converges(t *testing.T) {
	for _, easing := range []float32{0.025, 0.5, 1} {
		e := NewEaseNumber(0, easing)
		e.SetTo(1)

		prev := e.Value()
		for i := 0; i < 2000; i++ {
			e.Update()
			assert.GreaterOrEqual(t, e.Value(), prev)
			assert.LessOrEqual(t, e.Value(), float32(1))
			prev = e.Value()
		}
		assert.InDelta(t, 1, e.Value(), 1e-4, "easing %v", easing)
	}
}

func TestEaseNumber_OpenAndSetValue(t *testing.T) {
	e := NewEaseNumber(0.7, 0.025)
	assert.Equal(t, float32(0.7), e.Value())

	e.Open()
	assert.Zero(t, e.Value())
	assert.Equal(t, float32(1), e.Target())
	assert.False(t, e.Closing())

	e.Update()
	assert.InDelta(t, 0.025, e.Value(), 1e-6)

	e.SetTo(0)
	assert.True(t, e.Closing())

	e.SetValue(0.3)
	assert.Equal(t, float32(0.3), e.Value())
	assert.Equal(t, float32(0.3), e.Target())
}
