package swarm

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module installs resources and systems into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any
	built              bool

	stopped bool
	err     error
}

func newApp() *App {
	return &App{
		systems:          make(map[string]map[State]map[statePhase][]systemFn),
		systemsStateless: make(map[string][]systemFn),
		resources:        make(map[reflect.Type]any),
	}
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// build installs the frame stages once. Stages depend on the state range,
// so it runs after UseStates.
func (app *App) build() {
	if app.built {
		return
	}
	app.built = true
	for _, stage := range frameStages {
		app.stages = append(app.stages, stage)
		app.initStatefulStage(stage)
	}
}

// Run executes frames until the final state is reached or a system stops the
// App. The first error reported through Commands.Fail is returned.
func (app *App) Run() error {
	app.build()

	logger := app.Logger()
	if app.stateful {
		logger.Debugf("Running in stateful mode")

		app.state = app.initialState
		app.callSystems(app.state, enter)
	} else {
		logger.Debugf("Running in stateless mode")
	}

	for !app.stopped {
		app.callSystems(app.state, execute)

		if app.stateful {
			if app.stateTransitioning {
				app.stateTransitioning = false
				app.executeChangeState(app.nextState)
			}

			if app.state == app.finalState {
				app.callSystems(app.state, exit)
				break
			}
		}
	}
	return app.err
}

// Step runs a single execute pass over every stage. Tests drive the App with it.
func (app *App) Step() {
	app.build()
	app.callSystems(app.state, execute)
	if app.stateful && app.stateTransitioning {
		app.stateTransitioning = false
		app.executeChangeState(app.nextState)
	}
}

func (app *App) State() State { return app.state }

func (app *App) Err() error { return app.err }

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		if execute == phase {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		if app.stateful {
			if systemsInStage, ok := app.systems[stage.Name]; ok {
				if systemsInState, ok := systemsInStage[state]; ok {
					if systemsInPhase, ok := systemsInState[phase]; ok {
						for _, system := range systemsInPhase {
							app.callSystem(system)
						}
					}
				}
			}
		}
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

// stop ends Run after the current frame. In a stateful App it moves to the
// final state so exit systems still run.
func (app *App) stop(err error) {
	if err != nil && app.err == nil {
		app.err = err
	}
	if app.stateful {
		app.changeState(app.finalState)
		return
	}
	app.stopped = true
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type *T, if installed.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	typed, ok := r.(*T)
	return typed, ok
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			app.Logger().Errorf("%s", msg)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

func (app *App) UseModules(modules ...Module) *App {
	app.build()
	commands := app.Commands()
	for _, module := range modules {
		module.Install(app, commands)
	}
	return app
}
