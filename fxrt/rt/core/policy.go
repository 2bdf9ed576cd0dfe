package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Logf receives debug messages from core components. A nil Logf discards them.
type Logf func(format string, args ...any)

func (l Logf) printf(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}

// TriggerPolicy reacts to a user trigger (tap, click) by changing the anchor set.
type TriggerPolicy interface {
	OnTrigger(s Session) (AnchorID, error)
}

// ToggleAnchors places an anchor per trigger and drives a Toggle. When the toggle
// restarts its cycle every anchor but the newest is removed.
type ToggleAnchors struct {
	Toggle *Toggle
	Offset mgl32.Vec3
	Logf   Logf
}

func (p *ToggleAnchors) OnTrigger(s Session) (AnchorID, error) {
	id, err := s.AddAnchorRelativeToCamera(p.Offset)
	if err != nil {
		return "", fmt.Errorf("add anchor: %w", err)
	}
	p.Logf.printf("anchor added: %s", id)

	if p.Toggle.Trigger() {
		for _, a := range s.Anchors() {
			if a.ID != id {
				s.RemoveAnchor(a.ID)
			}
		}
	}
	p.Logf.printf("anchors: %d, triggers: %d", len(s.Anchors()), p.Toggle.Triggers())
	return id, nil
}

// OpenOnTrigger places an anchor, drops the older ones, reinitialises the
// particles from it and restarts the ease toward open. The particles live at
// a single anchor, so the reinit anchor is always the one composited.
type OpenOnTrigger struct {
	Ease   *EaseNumber
	Offset mgl32.Vec3
	Reinit func(Anchor) error
	Logf   Logf
}

func (p *OpenOnTrigger) OnTrigger(s Session) (AnchorID, error) {
	id, err := s.AddAnchorRelativeToCamera(p.Offset)
	if err != nil {
		return "", fmt.Errorf("add anchor: %w", err)
	}
	p.Logf.printf("anchor added: %s", id)

	var placed Anchor
	for _, a := range s.Anchors() {
		if a.ID == id {
			placed = a
		} else {
			s.RemoveAnchor(a.ID)
		}
	}
	if p.Reinit != nil {
		if err := p.Reinit(placed); err != nil {
			return id, err
		}
	}
	p.Ease.Open()
	return id, nil
}
