package swarm

import "fmt"

type State int

// States used by the particle apps. Running enters once at startup and
// executes every frame; Quit is final and its exit systems release devices.
const (
	StateRunning State = iota
	StateQuit
)

// Stage is a named slot of the frame. Systems within a stage run in the
// order they were added.
type Stage struct {
	Name string
}

var (
	// Prelude samples the clock and polls input.
	Prelude = Stage{Name: "Prelude"}
	// PreUpdate applies triggers and camera motion before the tick.
	PreUpdate = Stage{Name: "PreUpdate"}
	// Update runs the feedback tick.
	Update = Stage{Name: "Update"}
	// PreRender keeps the surface in step with the window.
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	// Finale tears down what Render and the stages before it rely on.
	Finale = Stage{Name: "Finale"}
)

var frameStages = []Stage{Prelude, PreUpdate, Update, PreRender, Render, PostRender, Finale}

type statePhase int

const (
	enter statePhase = iota
	execute
	exit
)

type stateScheduleBuilder struct {
	state State
	phase statePhase
}

// OnEnter runs a system once when the App enters state.
func OnEnter(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: enter}
}

// OnExecute runs a system every frame while the App is in state.
func OnExecute(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: execute}
}

// OnExit runs a system once when the App leaves state, or reaches it as
// the final state.
func OnExit(state State) stateScheduleBuilder {
	return stateScheduleBuilder{state: state, phase: exit}
}

type systemScheduleBuilder struct {
	system  systemFn
	inStage Stage
	// inState is nil for systems that run every frame whatever the state.
	inState *stateScheduleBuilder
}

// System schedules fn in the Update stage of every frame.
func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{system: system, inStage: Update}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	sched.inStage = s
	return sched
}

func (sched systemScheduleBuilder) InState(s stateScheduleBuilder) systemScheduleBuilder {
	sched.inState = &s
	return sched
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	name := system.inStage.Name
	if system.inState == nil {
		if _, ok := app.systemsStateless[name]; !ok {
			panic(fmt.Sprintf("Stage %v doesn't exist", name))
		}
		app.systemsStateless[name] = append(app.systemsStateless[name], system.system)
		return app
	}

	if !app.stateful {
		panic("Trying to use a stateful system in a stateless app.")
	}
	systemsInStage, ok := app.systems[name]
	if !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", name))
	}
	systemsInState, ok := systemsInStage[system.inState.state]
	if !ok {
		panic(fmt.Sprintf("State %v doesn't exist", system.inState.state))
	}
	phase := system.inState.phase
	systemsInState[phase] = append(systemsInState[phase], system.system)
	return app
}

func (app *App) initStatefulStage(stage Stage) {
	app.systemsStateless[stage.Name] = nil
	if !app.stateful {
		return
	}
	app.systems[stage.Name] = make(map[State]map[statePhase][]systemFn)
	for state := app.initialState; state <= app.finalState; state++ {
		app.systems[stage.Name][state] = make(map[statePhase][]systemFn)
	}
}
