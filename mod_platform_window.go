package swarm

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

func (s *WindowState) Window() *glfw.Window { return s.windowGlfw }

// FramebufferSize is the drawable size in pixels, which differs from the
// window size on high-DPI displays.
func (s *WindowState) FramebufferSize() (int, int) {
	return s.windowGlfw.GetFramebufferSize()
}

func (s *WindowState) ShouldClose() bool { return s.windowGlfw.ShouldClose() }

func createWindowState(windowWidth int, windowHeight int, windowTitle string) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	// WebGPU owns the surface; GLFW must not create a GL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}, nil
}

func (s *WindowState) destroy() {
	s.windowGlfw.Destroy()
	glfw.Terminate()
}

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is created
// and made available as a resource for the renderer and input modules.
// Install is idempotent: if a WindowState resource already exists, it is reused.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates a module that provides a shared WindowState resource.
// If Width/Height are zero, sensible defaults are used.
func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "swarm"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	t := reflect.TypeOf((*WindowState)(nil)).Elem()
	if _, ok := app.resources[t]; ok {
		return
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title)
	if err != nil {
		cmd.Fail(err)
		return
	}
	app.addResources(ws)
	app.Logger().Infof("Created window (%dx%d) '%s'", m.Width, m.Height, m.Title)

	app.UseSystem(
		System(windowCloseSystem).
			InStage(PostRender),
	)
	app.UseSystem(
		System(windowDestroySystem).
			InStage(Finale).
			InState(OnExit(StateQuit)),
	)
}

func windowCloseSystem(s *WindowState, cmd *Commands) {
	if s.ShouldClose() {
		cmd.Quit()
	}
}

func windowDestroySystem(s *WindowState) {
	s.destroy()
}
