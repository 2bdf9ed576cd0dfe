package swarm

// RendererName identifies a concrete renderer module.
type RendererName string

const (
	RendererWGPU     RendererName = "wgpu"
	RendererHeadless RendererName = "headless"
)

// Renderer is an alias to Module for semantic clarity in APIs.
type Renderer interface {
	Module
}

func (n RendererName) needsWindow() bool { return n == RendererWGPU }

// UseRenderer installs exactly one renderer module, enforcing exclusivity via
// ensureSingleRenderer. Windowed renderers get a shared WindowState created
// with defaults when none exists yet.
// Usage:
//
//	app.UseRenderer(RendererHeadless, HeadlessModule{MaxFrames: 600})
func (app *App) UseRenderer(name RendererName, mod Renderer) *App {
	return app.UseRendererWithWindow(name, mod, 0, 0, "")
}

// UseRendererWithWindow installs the renderer and, for windowed renderers,
// ensures a shared window with explicit size/title.
func (app *App) UseRendererWithWindow(name RendererName, mod Renderer, width, height int, title string) *App {
	ensureSingleRenderer(app, name)
	if name.needsWindow() {
		app.UseModules(NewPlatformWindow(width, height, title), InputModule{})
	}
	if app.err != nil {
		return app
	}
	app.Logger().Infof("Renderer selected: %s", name)
	app.UseModules(mod)
	return app
}

// UseWGPU selects the WebGPU renderer with a window sized from cfg.
func (app *App) UseWGPU(cfg Config) *App {
	return app.UseRendererWithWindow(RendererWGPU, FeedbackRendererModule{Debug: cfg.Debug},
		cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
}
