package swarm

import (
	"time"
)

type Time struct {
	Time    time.Time
	Dt      time.Duration
	Start   time.Time
	Elapsed time.Duration
}

// Seconds is the elapsed time since start, the clock the stepper consumes.
func (t *Time) Seconds() float64 { return t.Elapsed.Seconds() }

// TimeModule advances the Time resource once per frame. A non-zero FixedDt
// replaces the wall clock, which keeps headless runs reproducible.
type TimeModule struct {
	FixedDt time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := time.Now()
	cmd.AddResources(&Time{
		Time:  now,
		Start: now,
	})
	if mod.FixedDt > 0 {
		dt := mod.FixedDt
		app.UseSystem(
			System(func(t *Time) { advanceTime(t, t.Time.Add(dt)) }).
				InStage(Prelude),
		)
		return
	}
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude),
	)
}

func timeSystem(timeResource *Time) {
	advanceTime(timeResource, time.Now())
}

func advanceTime(t *Time, now time.Time) {
	t.Dt = now.Sub(t.Time)
	t.Time = now
	t.Elapsed = now.Sub(t.Start)
}
