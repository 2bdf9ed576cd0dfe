package core

import (
	"errors"
	"fmt"
)

// FrameStats summarises one Draw.
type FrameStats struct {
	Anchors   int
	Particles int // points drawn to the screen, 0 in the environment-only view
}

// Pipeline ties the per-frame phases together: tick first, then the auxiliary
// passes, then the compositor. Both phases run on the caller's goroutine.
type Pipeline struct {
	Stepper     *Stepper
	Shadow      ShadowPass
	Environment EnvironmentPass
	Compositor  *Compositor
	Session     Session
	Policy      TriggerPolicy
	// Trace, when set, is called at the start of each phase and returns
	// the call that ends it.
	Trace func(phase string) func()
}

func (p *Pipeline) trace(phase string) func() {
	if p.Trace == nil {
		return func() {}
	}
	return p.Trace(phase)
}

func (p *Pipeline) Validate() error {
	if p.Stepper == nil || p.Compositor == nil || p.Session == nil {
		return errors.New("pipeline: stepper, compositor and session are required")
	}
	return nil
}

// Trigger forwards a user trigger to the anchor policy.
func (p *Pipeline) Trigger() (AnchorID, error) {
	if p.Policy == nil {
		return "", nil
	}
	id, err := p.Policy.OnTrigger(p.Session)
	if err != nil {
		return "", fmt.Errorf("trigger: %w", err)
	}
	return id, nil
}

// Update advances the simulation by one tick.
func (p *Pipeline) Update(elapsed float64) error {
	defer p.trace("Step")()
	return p.Stepper.Step(elapsed)
}

// Draw renders the auxiliary targets and composites the frame from the
// buffer the last tick wrote.
func (p *Pipeline) Draw(painter Painter, viewport [2]float32) FrameStats {
	binding := p.Stepper.Binding()
	count := p.Stepper.Count()
	progress := p.Stepper.Progress()

	end := p.trace("Shadow")
	p.Shadow.Render(painter, binding, count, progress)
	end()

	end = p.trace("Environment")
	p.Environment.Render(painter)
	end()

	defer p.trace("Composite")()
	stats := FrameStats{Anchors: len(p.Session.Anchors())}
	if p.Compositor.Draw(painter, p.Session, binding, count, progress, viewport) {
		stats.Particles = count
	}
	return stats
}

// Frame runs Update then Draw.
func (p *Pipeline) Frame(elapsed float64, painter Painter, viewport [2]float32) (FrameStats, error) {
	if err := p.Update(elapsed); err != nil {
		return FrameStats{}, err
	}
	return p.Draw(painter, viewport), nil
}
