package swarm

type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

// Quit ends the App after the current frame.
func (cmd *Commands) Quit() {
	cmd.app.stop(nil)
}

// Fail records err as the App's result and ends it after the current frame.
// Only the first error is kept.
func (cmd *Commands) Fail(err error) {
	cmd.app.Logger().Errorf("%v", err)
	cmd.app.stop(err)
}
