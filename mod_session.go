package swarm

import (
	"image"

	"github.com/gekko3d/swarm/fxrt/rt/core"
)

// SessionModule installs the desktop session as a *core.SimSession resource.
// Right-drag orbits the camera; the feed drifts over time.
type SessionModule struct {
	Config Config
}

func (m SessionModule) Install(app *App, cmd *Commands) {
	var camera image.Image
	if m.Config.CameraImage != "" {
		img, err := core.LoadCameraImage(m.Config.CameraImage)
		if err != nil {
			cmd.Fail(core.Fatal(err))
			return
		}
		camera = img
		app.Logger().Infof("Camera feed from %s", m.Config.CameraImage)
	}

	w, h := m.Config.Window.Width, m.Config.Window.Height
	session := core.NewSimSession(core.SimSessionOptions{
		Aspect: float32(w) / float32(h),
		Camera: camera,
	})
	cmd.AddResources(session)

	app.UseSystem(
		System(sessionSystem).
			InStage(PreUpdate).
			InState(OnExecute(StateRunning)),
	)
}

func sessionSystem(session *core.SimSession, input *Input, t *Time) {
	if dx, dy := input.Drag(); dx != 0 || dy != 0 {
		session.Orbit(float32(dx), float32(dy))
	}
	session.Advance(t.Dt.Seconds())
}
